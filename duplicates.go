package jsonconf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type frameKind int

const (
	frameObject frameKind = iota
	frameArray
)

type dupFrame struct {
	kind         frameKind
	path         string
	keys         map[string]struct{}
	expectingKey bool
	index        int
}

// child returns the pointer of the value about to be read in the frame.
func (f *dupFrame) child(key string) string {
	if f.kind == frameArray {
		return f.path + "/" + strconv.Itoa(f.index)
	}
	return f.path + "/" + escapePointer(key)
}

func escapePointer(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}

// DuplicateKeys scans one JSON document from r and reports every object key
// that appears more than once in the same object. Decoding keeps the last
// occurrence, so callers that need to reject such input check this first.
// maxIssues <= 0 means unlimited.
func DuplicateKeys(r io.Reader, maxIssues int) (Issues, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var (
		iss     Issues
		stack   []dupFrame
		lastKey string
	)
	// value marks a complete value in the enclosing frame.
	value := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		if top.kind == frameObject {
			top.expectingKey = true
		} else {
			top.index++
		}
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return iss, &SerialiseError{Op: "parse JSON", Cause: err}
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				path := ""
				if len(stack) > 0 {
					path = stack[len(stack)-1].child(lastKey)
				}
				if d == '{' {
					stack = append(stack, dupFrame{kind: frameObject, path: path, keys: map[string]struct{}{}, expectingKey: true})
				} else {
					stack = append(stack, dupFrame{kind: frameArray, path: path})
				}
			default:
				stack = stack[:len(stack)-1]
				value()
			}
			continue
		}
		if k, ok := tok.(string); ok && len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.kind == frameObject && top.expectingKey {
				if _, seen := top.keys[k]; seen {
					iss = AppendIssues(iss, Issue{
						Path:    top.child(k),
						Code:    CodeDuplicateKey,
						Message: fmt.Sprintf("key '%s' duplicated", k),
						Params:  map[string]any{"key": k},
					})
					if maxIssues > 0 && len(iss) >= maxIssues {
						return iss, nil
					}
				}
				top.keys[k] = struct{}{}
				top.expectingKey = false
				lastKey = k
				continue
			}
		}
		value()
	}
	if len(stack) > 0 {
		return iss, &SerialiseError{Op: "parse JSON", Cause: io.ErrUnexpectedEOF}
	}
	return iss, nil
}
