package core

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// CanonicalizeJSON renders value as JCS (RFC 8785) canonical JSON: object
// keys sorted lexicographically, no insignificant whitespace, numbers in
// their shortest round-tripping form. It is used as the input to signature
// computation, so both sides of a connection must produce byte-identical
// output for the same logical document.
func CanonicalizeJSON(value interface{}) (string, error) {
	var buf bytes.Buffer
	if err := canonicalizeInto(&buf, value); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func canonicalizeInto(buf *bytes.Buffer, value interface{}) error {
	switch v := value.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case json.Number:
		return canonicalizeNumber(buf, v)
	case string:
		return canonicalizeString(buf, v)
	case []interface{}:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := canonicalizeInto(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := canonicalizeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := canonicalizeInto(buf, v[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		// Shouldn't be reached when the tree comes from json.Decoder with
		// UseNumber(); fall back to the standard encoder for safety.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(data)
		return nil
	}
}

func canonicalizeString(buf *bytes.Buffer, s string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// canonicalizeNumber prints the shortest form: integers without a decimal
// point, floats via strconv's shortest round-tripping representation.
func canonicalizeNumber(buf *bytes.Buffer, n json.Number) error {
	if i, err := n.Int64(); err == nil {
		buf.WriteString(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return err
	}
	buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// DecodeForCanonicalization decodes raw JSON into a generic tree suitable
// for CanonicalizeJSON, preserving number precision via json.Number instead
// of collapsing everything to float64.
func DecodeForCanonicalization(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// CanonicalizeRequestForSigning marshals request to JSON, strips the
// signature field (which cannot be part of what it signs), and returns the
// JCS canonical form of the remainder.
func CanonicalizeRequestForSigning(request *Request) (string, error) {
	sig := request.Signature
	request.Signature = nil
	defer func() { request.Signature = sig }()

	data, err := json.Marshal(request)
	if err != nil {
		return "", err
	}
	tree, err := DecodeForCanonicalization(data)
	if err != nil {
		return "", err
	}
	return CanonicalizeJSON(tree)
}
