package framework

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/launchdarkly/xhr-contract-tests/servicedef"
)

// QueryTargetServer waits for the target server to answer its status resource, and returns the
// metadata it provides. It retries until the timeout expires, printing progress to output.
func QueryTargetServer(url string, timeout time.Duration, output io.Writer) (servicedef.TargetInfo, error) {
	if output == nil {
		output = io.Discard
	}
	fmt.Fprintf(output, "Connecting to target server at %s", url)

	client := &http.Client{Timeout: timeout}
	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := client.Get(url + "/")
		if err == nil {
			fmt.Fprintln(output)
			return readTargetInfo(resp, output)
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return servicedef.TargetInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(time.Millisecond * 100)
	}
}

func readTargetInfo(resp *http.Response, output io.Writer) (servicedef.TargetInfo, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return servicedef.TargetInfo{}, fmt.Errorf("target server returned status code %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return servicedef.TargetInfo{}, err
	}
	if len(data) == 0 {
		fmt.Fprintf(output, "Status query successful, but server provided no metadata\n")
		return servicedef.TargetInfo{}, nil
	}
	fmt.Fprintf(output, "Status query returned metadata: %s\n", string(data))
	var info servicedef.TargetInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return servicedef.TargetInfo{}, fmt.Errorf("malformed status response from target server: %s", string(data))
	}
	return info, nil
}
