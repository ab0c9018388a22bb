package topology

import (
	"fmt"
	"time"
)

const (
	CPUAlarmName     = "RDSCPUAlarm"
	StorageAlarmName = "RDSStorageAlarm"
	DashboardName    = "RDSDashboard"
)

// Metric names published by RDS.
const (
	MetricCPUUtilization   = "CPUUtilization"
	MetricFreeStorageSpace = "FreeStorageSpace"
)

// ComparisonOperator mirrors the CloudWatch operator names.
type ComparisonOperator string

const (
	GreaterThanOrEqualToThreshold ComparisonOperator = "GreaterThanOrEqualToThreshold"
	LessThanOrEqualToThreshold    ComparisonOperator = "LessThanOrEqualToThreshold"
)

const bytesPerGiB = 1 << 30

// ExpressionVariable is the name Metric is bound to inside an alarm Expression.
const ExpressionVariable = "freeSpace"

// AlarmSpec describes one alarm. When Expression is set the alarm watches the
// expression, with Metric bound to ExpressionVariable.
type AlarmSpec struct {
	Name              string
	Metric            string
	Expression        string
	ExpressionLabel   string
	Comparison        ComparisonOperator
	Threshold         float64
	Period            time.Duration
	EvaluationPeriods int
	DatapointsToAlarm int
}

// Breaches reports whether a single datapoint is on the alarming side of the
// threshold.
func (a AlarmSpec) Breaches(v float64) bool {
	switch a.Comparison {
	case GreaterThanOrEqualToThreshold:
		return v >= a.Threshold
	case LessThanOrEqualToThreshold:
		return v <= a.Threshold
	default:
		return false
	}
}

// Fires evaluates the alarm on consecutive datapoints, oldest first, one per
// Period. Only the last EvaluationPeriods datapoints are considered and at
// least DatapointsToAlarm of them must breach.
func (a AlarmSpec) Fires(datapoints []float64) bool {
	if a.EvaluationPeriods <= 0 || len(datapoints) < a.EvaluationPeriods {
		return false
	}
	window := datapoints[len(datapoints)-a.EvaluationPeriods:]
	breaching := 0
	for _, v := range window {
		if a.Breaches(v) {
			breaching++
		}
	}
	return breaching >= a.DatapointsToAlarm
}

// StorageRatio is the value watched by the storage alarm: free bytes over
// provisioned bytes.
func StorageRatio(freeBytes float64, storageGiB int) float64 {
	return freeBytes / (float64(storageGiB) * bytesPerGiB)
}

func cpuAlarm() AlarmSpec {
	return AlarmSpec{
		Name:              CPUAlarmName,
		Metric:            MetricCPUUtilization,
		Comparison:        GreaterThanOrEqualToThreshold,
		Threshold:         90,
		Period:            time.Minute,
		EvaluationPeriods: 3,
		DatapointsToAlarm: 3,
	}
}

func storageAlarm(storageGiB int) AlarmSpec {
	return AlarmSpec{
		Name:              StorageAlarmName,
		Metric:            MetricFreeStorageSpace,
		Expression:        fmt.Sprintf("%s / (%d * 1024 * 1024 * 1024)", ExpressionVariable, storageGiB),
		ExpressionLabel:   MetricFreeStorageSpace,
		Comparison:        LessThanOrEqualToThreshold,
		Threshold:         0.2,
		Period:            time.Minute,
		EvaluationPeriods: 3,
		DatapointsToAlarm: 3,
	}
}

// LogQuerySpec is one Logs Insights table on the dashboard.
type LogQuerySpec struct {
	Title         string
	LogGroupNames []string
	Query         string
}

// DashboardSpec describes the single dashboard.
type DashboardSpec struct {
	Name            string
	DefaultInterval time.Duration
	// AlarmWidgets lists alarm names, one widget each, on the first row.
	AlarmWidgets []string
	// LogQueries are laid out one per row after the alarms.
	LogQueries   []LogQuerySpec
	WidgetWidth  int
	WidgetHeight int
}
