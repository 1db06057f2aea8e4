package notify

import (
	"bytes"
	"mime"
	"time"
)

// buildMIME renders msg as an RFC 5322 message with an HTML body.
func buildMIME(from string, msg Message, now time.Time) []byte {
	var b bytes.Buffer
	writeHeader := func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}
	writeHeader("From", from)
	writeHeader("To", msg.To)
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	writeHeader("Date", now.Format(time.RFC1123Z))
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", "text/html; charset=UTF-8")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return b.Bytes()
}
