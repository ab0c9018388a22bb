// Package monitoring declares the database alarms and the dashboard.
package monitoring

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsrds"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/samber/lo"

	"github.com/single-instance-rds/infra/lib/cdklogger"
	"github.com/single-instance-rds/infra/lib/topology"
	"github.com/single-instance-rds/infra/lib/utils"
)

// logWidgetScale is how many alarm widgets a log table spans in each direction.
const logWidgetScale = 3

type NewMonitoringInput struct {
	Alarms    []topology.AlarmSpec
	Dashboard topology.DashboardSpec
	Database  awsrds.IDatabaseInstance
}

type Monitoring struct {
	Alarms    map[string]awscloudwatch.Alarm
	Dashboard awscloudwatch.Dashboard
}

func NewMonitoring(scope constructs.Construct, input NewMonitoringInput) Monitoring {
	m := Monitoring{Alarms: map[string]awscloudwatch.Alarm{}}

	for _, spec := range input.Alarms {
		m.Alarms[spec.Name] = awscloudwatch.NewAlarm(scope, jsii.String(spec.Name), &awscloudwatch.AlarmProps{
			Metric:             alarmMetric(input.Database, spec),
			AlarmName:          jsii.String(spec.Name),
			Threshold:          jsii.Number(spec.Threshold),
			EvaluationPeriods:  jsii.Number(spec.EvaluationPeriods),
			DatapointsToAlarm:  jsii.Number(spec.DatapointsToAlarm),
			ComparisonOperator: comparison(spec.Comparison),
		})
	}

	d := input.Dashboard
	alarmRow := lo.Map(d.AlarmWidgets, func(name string, _ int) awscloudwatch.IWidget {
		alarm, ok := m.Alarms[name]
		if !ok {
			panic(fmt.Sprintf("dashboard references undeclared alarm %q", name))
		}
		return awscloudwatch.NewAlarmWidget(&awscloudwatch.AlarmWidgetProps{
			Alarm:  alarm,
			Title:  jsii.String(name),
			Width:  jsii.Number(d.WidgetWidth),
			Height: jsii.Number(d.WidgetHeight),
		})
	})

	rows := []*[]awscloudwatch.IWidget{&alarmRow}
	for _, q := range d.LogQueries {
		rows = append(rows, &[]awscloudwatch.IWidget{
			awscloudwatch.NewLogQueryWidget(&awscloudwatch.LogQueryWidgetProps{
				LogGroupNames: jsii.Strings(q.LogGroupNames...),
				Title:         jsii.String(q.Title),
				View:          awscloudwatch.LogQueryVisualizationType_TABLE,
				QueryString:   jsii.String(q.Query),
				Width:         jsii.Number(d.WidgetWidth * logWidgetScale),
				Height:        jsii.Number(d.WidgetHeight * logWidgetScale),
			}),
		})
	}

	m.Dashboard = awscloudwatch.NewDashboard(scope, jsii.String(d.Name), &awscloudwatch.DashboardProps{
		DashboardName:   jsii.String(d.Name),
		Widgets:         &rows,
		DefaultInterval: utils.CdkDuration(d.DefaultInterval),
	})

	cdklogger.LogInfo(scope, d.Name, "%d alarms, %d log tables", len(m.Alarms), len(d.LogQueries))
	return m
}

func alarmMetric(db awsrds.IDatabaseInstance, spec topology.AlarmSpec) awscloudwatch.IMetric {
	metric := db.Metric(jsii.String(spec.Metric), &awscloudwatch.MetricOptions{
		Period: utils.CdkDuration(spec.Period),
	})
	if spec.Expression == "" {
		return metric
	}
	return awscloudwatch.NewMathExpression(&awscloudwatch.MathExpressionProps{
		Expression: jsii.String(spec.Expression),
		UsingMetrics: &map[string]awscloudwatch.IMetric{
			topology.ExpressionVariable: metric,
		},
		Label:  jsii.String(spec.ExpressionLabel),
		Period: utils.CdkDuration(spec.Period),
	})
}

func comparison(op topology.ComparisonOperator) awscloudwatch.ComparisonOperator {
	switch op {
	case topology.GreaterThanOrEqualToThreshold:
		return awscloudwatch.ComparisonOperator_GREATER_THAN_OR_EQUAL_TO_THRESHOLD
	case topology.LessThanOrEqualToThreshold:
		return awscloudwatch.ComparisonOperator_LESS_THAN_OR_EQUAL_TO_THRESHOLD
	default:
		panic(fmt.Sprintf("unsupported comparison operator %q", op))
	}
}
