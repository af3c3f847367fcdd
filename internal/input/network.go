package input

import (
	"bufio"
	"bytes"
	"context"

	"github.com/sirupsen/logrus"
)

// ReadNetworkLog reads a line-delimited log file. "\n", "\r\n" and a bare
// "\r" all end a line; a trailing terminator does not produce an extra
// empty line.
func (s *FileSource) ReadNetworkLog(ctx context.Context, path string) ([]string, error) {
	content, err := readFile(ctx, path)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	scanner.Split(scanLogLines)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, parseError(path, "%v", err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":  path,
		"lines": len(lines),
	}).Debug("Read network log")

	return lines, nil
}

// scanLogLines is a bufio.SplitFunc accepting any of the three line endings
func scanLogLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
