package station

import "strconv"

// DefaultTopicPrefix is the topic namespace readings are published under.
const DefaultTopicPrefix = "esp32"

// Message is one broker publication: a fixed topic and an ASCII decimal
// payload with two fraction digits, e.g. "23.45".
type Message struct {
	Topic   string
	Payload string
}

// Messages maps a report to its broker publications. Raw topics are only
// produced when the instantaneous reading was valid this cycle; averaged
// topics are produced whenever the channel has a usable smoothed value, so
// a single sensor glitch does not silence the averaged series.
func (r Report) Messages(prefix string) []Message {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}

	msgs := make([]Message, 0, 4)
	appendChannel := func(k Kind, rd Reading) {
		if rd.Instant.OK {
			msgs = append(msgs, Message{
				Topic:   prefix + "/" + string(k),
				Payload: FormatValue(rd.Instant.V),
			})
		}
		if rd.Smoothed.OK {
			msgs = append(msgs, Message{
				Topic:   prefix + "/moving_average_" + string(k),
				Payload: FormatValue(rd.Smoothed.V),
			})
		}
	}
	appendChannel(Temperature, r.Temperature)
	appendChannel(Humidity, r.Humidity)
	return msgs
}

// FormatValue renders a reading as the wire payload: decimal, two fraction
// digits.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
