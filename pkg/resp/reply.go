package resp

import (
	"bufio"
	"strconv"
)

// WriteSimpleString writes "+s\r\n".
func WriteSimpleString(w *bufio.Writer, s string) error {
	_, err := w.WriteString("+" + s + "\r\n")
	return err
}

// WriteError writes "-s\r\n". Line breaks in s are replaced by spaces.
func WriteError(w *bufio.Writer, s string) error {
	b := []byte(s)
	for i, c := range b {
		if c == '\r' || c == '\n' {
			b[i] = ' '
		}
	}
	if err := w.WriteByte('-'); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func WriteInteger(w *bufio.Writer, n int64) error {
	_, err := w.WriteString(":" + strconv.FormatInt(n, 10) + "\r\n")
	return err
}

func WriteNullBulk(w *bufio.Writer) error {
	_, err := w.WriteString("$-1\r\n")
	return err
}

func WriteNullArray(w *bufio.Writer) error {
	_, err := w.WriteString("*-1\r\n")
	return err
}

// WriteBulk writes b as a bulk string; nil is written as the null bulk.
func WriteBulk(w *bufio.Writer, b []byte) error {
	if b == nil {
		return WriteNullBulk(w)
	}
	if _, err := w.WriteString("$" + strconv.Itoa(len(b)) + "\r\n"); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func WriteBulkString(w *bufio.Writer, s string) error {
	if _, err := w.WriteString("$" + strconv.Itoa(len(s)) + "\r\n"); err != nil {
		return err
	}
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func WriteArrayHeader(w *bufio.Writer, n int) error {
	_, err := w.WriteString("*" + strconv.Itoa(n) + "\r\n")
	return err
}

// WriteCommand encodes args as a multibulk request.
func WriteCommand(w *bufio.Writer, args ...[]byte) error {
	if err := WriteArrayHeader(w, len(args)); err != nil {
		return err
	}
	for _, a := range args {
		if a == nil {
			a = []byte{}
		}
		if err := WriteBulk(w, a); err != nil {
			return err
		}
	}
	return nil
}
