package questions

// Built-in per-role lists served when the service is unreachable. Purely a
// UX fallback; not part of the protocol contract.

var studentFallback = []Question{
	{ID: "fb-gpio", Text: "How do I configure a digital output pin?", Category: "gpio", Difficulty: "beginner"},
	{ID: "fb-led", Text: "Why does my LED blink at the wrong rate?", Category: "timer", Difficulty: "beginner"},
	{ID: "fb-uart", Text: "How do I print debug output over the serial port?", Category: "uart", Difficulty: "intermediate"},
	{ID: "fb-exti", Text: "When should I use an interrupt instead of polling?", Category: "interrupt", Difficulty: "intermediate"},
	{ID: "fb-pwm", Text: "How do I generate a PWM signal with a timer?", Category: "timer", Difficulty: "advanced"},
}

var teacherFallback = []Question{
	{ID: "fb-lab-gpio", Text: "How can I structure a lab exercise around GPIO basics?", Category: "gpio", Difficulty: "beginner"},
	{ID: "fb-lab-timer", Text: "What common mistakes should a timer assignment test for?", Category: "timer", Difficulty: "intermediate"},
	{ID: "fb-lab-grade", Text: "How do I grade interrupt-handling exercises fairly?", Category: "interrupt", Difficulty: "intermediate"},
	{ID: "fb-lab-uart", Text: "Which serial-port pitfalls are worth a dedicated demo?", Category: "uart", Difficulty: "advanced"},
}

func fallbackFor(role string, limit int) []Question {
	list := studentFallback
	if role == "teacher" {
		list = teacherFallback
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	out := make([]Question, len(list))
	copy(out, list)
	return out
}
