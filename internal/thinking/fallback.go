package thinking

import "strings"

// cannedAnswer is the default degraded-mode policy for AskOnce: a plain
// keyword lookup against the question text. It makes no claim of
// correctness; it only keeps the conversation surface responsive while the
// service is down.
func cannedAnswer(question, role string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "gpio") || strings.Contains(q, "pin") || strings.Contains(q, "led"):
		return "To drive a digital output, enable the port clock, configure the pin as push-pull output, " +
			"then set or clear its bit in the output register. Check the board schematic for which pin the peripheral is wired to."
	case strings.Contains(q, "timer") || strings.Contains(q, "pwm") || strings.Contains(q, "delay"):
		return "Timers count at the bus clock divided by the prescaler; the period follows from the auto-reload value. " +
			"For PWM, compare-register over reload gives the duty cycle. Verify the timer clock source before anything else."
	case strings.Contains(q, "interrupt") || strings.Contains(q, "exti") || strings.Contains(q, "nvic"):
		return "Interrupts beat polling whenever the event is rare or latency matters. Keep handlers short, " +
			"clear the pending flag inside the handler, and hand longer work off to the main loop."
	case strings.Contains(q, "uart") || strings.Contains(q, "serial") || strings.Contains(q, "baud"):
		return "For serial output, match the baud rate, data bits, and parity on both ends, and make sure TX and RX are crossed. " +
			"A logic analyzer on the TX pin settles most wiring questions quickly."
	case strings.Contains(q, "debug") || strings.Contains(q, "hardfault") || strings.Contains(q, "crash"):
		return "Start from the fault registers and the stacked program counter; most hard faults trace back to a bad pointer " +
			"or an unclocked peripheral access. Single-step the last few instructions before the fault."
	}
	if role == "teacher" {
		return "The reasoning service is unreachable right now. The question has been noted; course materials on this topic " +
			"are available in the experiment catalog."
	}
	return "The reasoning service is unreachable right now, so a full answer isn't available. " +
		"Try again in a moment, or consult the course notes for this experiment."
}
