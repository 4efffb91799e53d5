// Package source provides the line sources the ingestion pipeline reads
// from: any io.Reader (stdin, files) and a Kafka topic.
package source

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Reader splits an io.Reader on '\n'. The newline is removed and nothing
// else is: a trailing '\r' or surrounding spaces stay part of the line.
type Reader struct {
	br  *bufio.Reader
	err error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadLine returns the next line. A final line without a newline is returned
// normally; the call after it reports io.EOF. Once an error has been
// returned every later call returns it again.
func (r *Reader) ReadLine(ctx context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if err := ctx.Err(); err != nil {
		r.err = err
		return "", err
	}
	line, err := r.br.ReadString('\n')
	if err != nil {
		r.err = err
		if err == io.EOF && line != "" {
			return line, nil
		}
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}
