package cdklogger

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// LogInfo adds an INFO annotation to scope. It is printed by `cdk synth`.
func LogInfo(scope constructs.Construct, constructID string, format string, args ...interface{}) {
	awscdk.Annotations_Of(scope).AddInfo(message(scope, constructID, format, args...))
}

// LogWarning adds a WARNING annotation to scope.
func LogWarning(scope constructs.Construct, constructID string, format string, args ...interface{}) {
	awscdk.Annotations_Of(scope).AddWarning(message(scope, constructID, format, args...))
}

// LogError adds an ERROR annotation to scope. Synthesis fails when any error
// annotation is present.
func LogError(scope constructs.Construct, constructID string, format string, args ...interface{}) {
	awscdk.Annotations_Of(scope).AddError(message(scope, constructID, format, args...))
}

// message prefixes "[constructID]" unless the construct path already ends with
// it.
func message(scope constructs.Construct, constructID string, format string, args ...interface{}) *string {
	msg := fmt.Sprintf(format, args...)
	if constructID == "" {
		return jsii.String(msg)
	}
	path := *scope.Node().Path()
	if strings.HasSuffix(path, "/"+constructID) || path == constructID {
		return jsii.String(msg)
	}
	return jsii.String(fmt.Sprintf("[%s] %s", constructID, msg))
}
