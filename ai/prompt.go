// Copyright 2025 MachSight Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"fmt"
	"strings"

	"github.com/machsight/machsight/analytics"
)

var depthInstructions = map[Depth]string{
	DepthQuickScan: "Provide a concise analysis focusing on the most critical issues.",
	DepthStandard:  "Provide a balanced analysis with root cause, recommendations, and timeline.",
	DepthDeep: "Provide comprehensive analysis including detailed root cause analysis, " +
		"failure progression, environmental factors, and long-term strategy.",
}

// sensorField pairs a raw feature name with its human label. The
// order matters for prompt stability.
type sensorField struct {
	key   string
	label string
}

var sensorFields = []sensorField{
	{"air_temperature_k", "Air Temperature"},
	{"process_temperature_k", "Process Temperature"},
	{"rotational_speed_rpm", "Rotational Speed"},
	{"torque_nm", "Torque"},
	{"tool_wear_min", "Tool Wear"},
	{"temperature", "Ambient Temperature"},
	{"humidity", "Humidity"},
	{"rainfall", "Rainfall"},
}

func formatSensorData(machineData map[string]float64) string {
	var lines []string
	for _, field := range sensorFields {
		value, ok := machineData[field.key]
		if !ok {
			continue
		}
		switch {
		case strings.HasSuffix(field.key, "_k"):
			celsius := value - 273.15
			lines = append(lines, fmt.Sprintf("- %s: %.1fK (%.1f°C)", field.label, value, celsius))
		case field.key == "humidity":
			lines = append(lines, fmt.Sprintf("- %s: %g%%", field.label, value))
		case field.key == "rainfall":
			lines = append(lines, fmt.Sprintf("- %s: %gmm", field.label, value))
		default:
			lines = append(lines, fmt.Sprintf("- %s: %g", field.label, value))
		}
	}
	if len(lines) == 0 {
		return "- No sensor data available"
	}
	return strings.Join(lines, "\n")
}

func buildAnalysisPrompt(
	machineData map[string]float64,
	prediction analytics.EnrichedPrediction,
	depth Depth,
) string {
	instructions, ok := depthInstructions[depth]
	if !ok {
		instructions = depthInstructions[DepthStandard]
	}
	var sb strings.Builder
	sb.WriteString("You are an expert industrial maintenance engineer analyzing equipment sensor data and ML predictions.\n\n")
	fmt.Fprintf(&sb, "**Analysis Depth:** %s\n%s\n\n", depth, instructions)
	fmt.Fprintf(&sb, "**Machine Sensor Data:**\n%s\n\n", formatSensorData(machineData))
	sb.WriteString("**ML Prediction Outputs:**\n")
	fmt.Fprintf(&sb, "- Vibration Index: %.1f (Lower is better, >60 is concerning)\n", prediction.VibrationIndex)
	fmt.Fprintf(&sb, "- Thermal Index: %.1f (Lower is better, >60 is concerning)\n", prediction.ThermalIndex)
	fmt.Fprintf(&sb, "- Efficiency Index: %.1f%% (Higher is better, <70%% needs attention)\n", prediction.EfficiencyIndex)
	fmt.Fprintf(&sb, "- Health Score: %.1f, Risk Level: %s, Dominant Issue: %s\n\n",
		prediction.HealthScore, prediction.RiskLevel, prediction.DominantIssue)
	sb.WriteString(`**Your Task:**
Provide a structured analysis with the following sections:

1. **ROOT CAUSE DIAGNOSIS** (2-3 sentences)
   - What is the primary failure mode?
   - What sensor readings support this diagnosis?

2. **RISK ASSESSMENT** (2-3 sentences)
   - What is the current failure risk level? (Low/Medium/High/Critical)
   - What is the estimated time until failure?
   - What are the consequences of inaction?

3. **MAINTENANCE RECOMMENDATIONS** (4-6 bullet points)
   - Immediate actions (0-6 hours)
   - Short-term maintenance (1-2 days)
   - Long-term preventive measures
   - Specific parts/procedures to address

4. **MAINTENANCE TIMELINE**
   - Immediate (0-6 hours): [action]
   - Short-term (1-2 days): [action]
   - Medium-term (1-2 weeks): [action]
   - Long-term (ongoing): [action]

5. **COST IMPACT ANALYSIS** (2-3 sentences)
   - Estimated monthly loss due to degradation
   - Potential catastrophic failure cost
   - ROI of preventive maintenance

Respond in a professional, data-driven tone suitable for plant managers and maintenance engineers.
`)
	return sb.String()
}

// parseResponse extracts the expected sections from the model's
// free-text answer by keyword-matching section heading lines. The
// matching is heuristic - unrecognized content before the first
// heading is dropped and the full text is always kept alongside.
func parseResponse(text string) Analysis {
	var ans Analysis
	ans.FullResponse = text

	sections := map[string]*string{
		"root_cause":      &ans.RootCause,
		"risk_assessment": &ans.RiskAssessment,
		"recommendations": &ans.Recommendations,
		"timeline":        &ans.Timeline,
		"cost_impact":     &ans.CostImpact,
	}
	var current *string
	for _, line := range strings.Split(text, "\n") {
		upper := strings.ToUpper(line)
		switch {
		case strings.Contains(upper, "ROOT CAUSE") || strings.Contains(upper, "DIAGNOSIS"):
			current = sections["root_cause"]
		case strings.Contains(upper, "RISK ASSESSMENT") || strings.Contains(upper, "RISK LEVEL"):
			current = sections["risk_assessment"]
		case strings.Contains(upper, "RECOMMENDATION"):
			current = sections["recommendations"]
		case strings.Contains(upper, "TIMELINE"):
			current = sections["timeline"]
		case strings.Contains(upper, "COST IMPACT") || strings.Contains(upper, "FINANCIAL IMPACT"):
			current = sections["cost_impact"]
		default:
			if current != nil && strings.TrimSpace(line) != "" {
				*current += line + "\n"
			}
		}
	}
	for _, section := range sections {
		*section = strings.TrimSpace(*section)
	}
	return ans
}
