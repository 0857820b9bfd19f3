package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAnalysis(t *testing.T) {
	before := testutil.ToFloat64(analysisRequestsTotal.WithLabelValues("plot", SourceCache))

	ObserveAnalysis("plot", SourceCache)
	ObserveAnalysis("plot", SourceCache)
	ObserveAnalysis("plot", SourceModel)

	if got := testutil.ToFloat64(analysisRequestsTotal.WithLabelValues("plot", SourceCache)); got != before+2 {
		t.Errorf("expected cache count %v, got %v", before+2, got)
	}
	if got := testutil.ToFloat64(analysisRequestsTotal.WithLabelValues("plot", SourceModel)); got < 1 {
		t.Errorf("expected llm count >= 1, got %v", got)
	}
}

func TestObserveArchiveFetch(t *testing.T) {
	before := testutil.ToFloat64(archiveFetchesTotal.WithLabelValues("content", OutcomeNotFound))
	ObserveArchiveFetch("content", OutcomeNotFound)
	if got := testutil.ToFloat64(archiveFetchesTotal.WithLabelValues("content", OutcomeNotFound)); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}

func TestObserveLLMRequest(t *testing.T) {
	ObserveLLMRequest("language", 1500*time.Millisecond)
	if n := testutil.CollectAndCount(llmRequestDurationSeconds); n == 0 {
		t.Fatal("expected llm duration histogram to have series")
	}
}
