package xhrtests

import (
	"strings"

	"github.com/launchdarkly/xhr-contract-tests/framework"
	"github.com/launchdarkly/xhr-contract-tests/servicedef"
	"github.com/launchdarkly/xhr-contract-tests/xhr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func doStreamingTests(s *suiteBuilder) {
	s.test("chunked body arrives complete", func(t *framework.T, serverURL string) {
		params := servicedef.ChunkedParams{
			Chunks:    ldvalue.NewOptionalInt(4),
			ChunkSize: ldvalue.NewOptionalInt(32),
			DelayMS:   ldvalue.NewOptionalInt(20),
		}
		r := sendSync(t, "GET", serverURL+"/chunked?"+params.Query().Encode(), nil)
		assert.Equal(t, params.Body(), r.ResponseText())
	}, servicedef.CapabilityChunked)

	s.test("chunked body has no computable length", func(t *framework.T, serverURL string) {
		r := xhr.New()
		log := newEventLog(r)
		require.NoError(t, r.Open("GET", serverURL+"/chunked", false))
		require.NoError(t, r.Send(nil))

		progress := log.ofType(xhr.EventProgress)
		require.NotEmpty(t, progress)
		for _, e := range progress {
			assert.False(t, e.LengthComputable)
			assert.Zero(t, e.Total)
		}
		assert.Equal(t, int64(len(servicedef.ChunkedParams{}.Body())), progress[len(progress)-1].Loaded)
	}, servicedef.CapabilityChunked)

	s.test("partial text is visible while loading", func(t *framework.T, serverURL string) {
		params := servicedef.ChunkedParams{
			Chunks:  ldvalue.NewOptionalInt(3),
			DelayMS: ldvalue.NewOptionalInt(50),
		}
		r := xhr.New()
		var partial []string
		r.AddEventListener(xhr.EventProgress, func(xhr.Event) { partial = append(partial, r.ResponseText()) })
		require.NoError(t, r.Open("GET", serverURL+"/chunked?"+params.Query().Encode(), false))
		require.NoError(t, r.Send(nil))

		require.NotEmpty(t, partial)
		assert.True(t, strings.HasPrefix(params.Body(), partial[0]))
		assert.Less(t, len(partial[0]), len(params.Body()))
		assert.Equal(t, params.Body(), partial[len(partial)-1])
	}, servicedef.CapabilityChunked)
}
