package report

import (
	"fmt"
	"io"
	"strings"
)

const rule = "========================================"

// WriteBanner prints the startup lines shown once the engine is ready.
// WriteBanner 输出引擎就绪后的启动信息。
func WriteBanner(w io.Writer) error {
	_, err := fmt.Fprint(w, "Inference engine initialized!\n\n*** FIRE DETECTION SYSTEM STARTED ***\n\n")
	return err
}

// WriteText renders a report in the serial console layout.
// WriteText 以串口控制台格式输出报告。
func WriteText(w io.Writer, r *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\nTEST SCENARIO: %s\n%s\n", rule, r.Label, rule)
	fmt.Fprintf(&b, "Temperature: %.2f °C\n", r.Readings.Temperature)
	fmt.Fprintf(&b, "Humidity: %.2f %%\n", r.Readings.Humidity)
	fmt.Fprintf(&b, "CO2: %.2f ppm\n", r.Readings.CO2)
	fmt.Fprintf(&b, "Hydrogen: %.2f %%\n", r.Readings.Hydrogen)
	fmt.Fprintf(&b, "Pressure: %.2f hPa\n", r.Readings.Pressure)

	switch {
	case r.InvokeFailed:
		writeScaled(&b, r)
		b.WriteString("Invoke failed!\n")
	case r.Error != "":
		fmt.Fprintf(&b, "Error: %s\n", r.Error)
	default:
		writeScaled(&b, r)
		b.WriteString("\n--- PREDICTIONS ---\n")
		fmt.Fprintf(&b, "Fire Probability: %.2f%% | No Fire: %.2f%% | Confidence: %.2f%%\n",
			r.Probability*100, r.NoFireProbability*100, r.Confidence*100)
		b.WriteString("RESULT: ")
		if r.Fire {
			b.WriteString("🔥 FIRE DETECTED!\n")
		} else {
			b.WriteString("✓ NO FIRE\n")
		}
		if len(r.Alerts) > 0 {
			fmt.Fprintf(&b, "ALERTS: %s\n", strings.Join(r.Alerts, ", "))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeScaled(b *strings.Builder, r *Report) {
	s := r.Standardized
	fmt.Fprintf(b, "\n--- SCALED INPUTS ---\nTemp: %.4f | Humidity: %.4f | CO2: %.4f | H2: %.4f | Pressure: %.4f\n",
		s.Temperature, s.Humidity, s.CO2, s.Hydrogen, s.Pressure)
}
