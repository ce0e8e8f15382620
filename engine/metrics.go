package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var classifyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "vigil_classify_duration_sec",
	Help: "Total duration of content classification",
}, []string{"type"})

var classifyCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vigil_content_classified",
	Help: "Number of content records classified, by initial status",
}, []string{"type", "status"})

var classifyErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vigil_classify_errors",
	Help: "Number of content records which failed classification",
}, []string{"type"})

var trustScoreCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vigil_trust_scores_computed",
	Help: "Number of trust score recomputations, by resulting level",
}, []string{"level"})

var riskAssessmentCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vigil_risk_assessments",
	Help: "Number of risk assessments, by resulting level",
}, []string{"level"})

var decisionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vigil_decisions_recorded",
	Help: "Number of human review decisions recorded",
}, []string{"event"})

var disputeOpenedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vigil_disputes_opened",
	Help: "Number of disputes opened, by assigned priority",
}, []string{"priority"})

var versionConflictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vigil_version_conflicts",
	Help: "Number of optimistic write conflicts (retried)",
}, []string{"record"})
