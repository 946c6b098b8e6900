// Package resp implements the Redis serialization protocol used by Yedis.
//
// The centrepiece is Parser, an incremental, resumable parser for the
// request stream. It understands both request encodings:
//
//   - Inline commands: a single CRLF-terminated line split with shell-like
//     quoting rules ("PING", `SET k "hello world"`).
//   - Multibulk commands: "*<n>\r\n" followed by n "$<len>\r\n<bytes>\r\n"
//     arguments. Arguments are binary safe.
//
// The parser never copies multibulk argument bytes. It reads the caller's
// buffer through at most two regions, so it can run directly over the two
// halves of a ring buffer, and it remembers how far it got so a frame split
// across many reads is scanned only once.
//
// Usage:
//
//	p := resp.New()
//	var cmd resp.Command
//	p.Capture(&cmd)
//	p.Update(buf)
//	end, err := p.NextCommand()
//	if err != nil {
//		// fatal for the connection
//	}
//	if end > 0 {
//		// cmd holds the arguments of buf[:end]
//		p.Consume(end)
//	}
//
// The package also carries the reply encoders used by the server and a
// reply decoder used by clients.
package resp
