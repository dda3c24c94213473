// Copyright 2025-present the money-server-go authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rpc implements the server side of the XML-RPC dialect the
// simulators speak: every call carries a single struct parameter and every
// response returns one. Requests decode into tagged Go structs and
// responses marshal back from them, using the same `xmlrpc` field tags the
// outbound client library uses.
package rpc

import (
	"encoding/xml"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
)

type methodCall struct {
	XMLName    xml.Name   `xml:"methodCall"`
	MethodName string     `xml:"methodName"`
	Params     []xmlValue `xml:"params>param>value"`
}

// xmlValue is one <value> element decoded into its Go shape: string, int,
// bool, float64, map[string]any for <struct> or []any for <array>.
type xmlValue struct {
	parsed any
}

func (v *xmlValue) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text strings.Builder
	sawChild := false

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			sawChild = true
			parsed, err := decodeTyped(d, t)
			if err != nil {
				return err
			}
			v.parsed = parsed
			// Consume up to the closing </value>.
			if err := d.Skip(); err != nil {
				return err
			}
			return nil
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			// Untyped <value>text</value> is a string.
			if !sawChild {
				v.parsed = text.String()
			}
			return nil
		}
	}
}

func decodeTyped(d *xml.Decoder, start xml.StartElement) (any, error) {
	switch start.Name.Local {
	case "string":
		var s string
		if err := d.DecodeElement(&s, &start); err != nil {
			return nil, err
		}
		return s, nil
	case "int", "i4", "i8":
		var s string
		if err := d.DecodeElement(&s, &start); err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q", start.Name.Local, s)
		}
		return n, nil
	case "boolean":
		var s string
		if err := d.DecodeElement(&s, &start); err != nil {
			return nil, err
		}
		switch strings.TrimSpace(s) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean value %q", s)
	case "double":
		var s string
		if err := d.DecodeElement(&s, &start); err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid double value %q", s)
		}
		return f, nil
	case "struct":
		return decodeStruct(d, start)
	case "array":
		return decodeArray(d, start)
	default:
		// dateTime.iso8601, base64 and anything else pass through as text.
		var s string
		if err := d.DecodeElement(&s, &start); err != nil {
			return nil, err
		}
		return s, nil
	}
}

func decodeStruct(d *xml.Decoder, start xml.StartElement) (map[string]any, error) {
	var raw struct {
		Members []struct {
			Name  string   `xml:"name"`
			Value xmlValue `xml:"value"`
		} `xml:"member"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(raw.Members))
	for _, m := range raw.Members {
		out[m.Name] = m.Value.parsed
	}
	return out, nil
}

func decodeArray(d *xml.Decoder, start xml.StartElement) ([]any, error) {
	var raw struct {
		Values []xmlValue `xml:"data>value"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return nil, err
	}
	out := make([]any, 0, len(raw.Values))
	for _, v := range raw.Values {
		out = append(out, v.parsed)
	}
	return out, nil
}

// ParseRequest reads a methodCall and returns the method name plus its
// single struct parameter. A call with no parameters yields an empty map.
func ParseRequest(r io.Reader) (string, map[string]any, error) {
	var call methodCall
	if err := xml.NewDecoder(r).Decode(&call); err != nil {
		return "", nil, fmt.Errorf("unable to parse method call: %w", err)
	}
	if call.MethodName == "" {
		return "", nil, fmt.Errorf("method call without a method name")
	}
	if len(call.Params) == 0 {
		return call.MethodName, map[string]any{}, nil
	}
	params, ok := call.Params[0].parsed.(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("method %s: first parameter is not a struct", call.MethodName)
	}
	return call.MethodName, params, nil
}

// DecodeParams fills dst, a pointer to a tagged struct, from the parameter
// map. Missing members leave the field at its zero value; simulators omit
// optional members freely. String-typed members coerce into int and bool
// fields because the callers are not strict about value typing.
func DecodeParams(params map[string]any, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a pointer to struct, got %T", dst)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		name := fieldName(rt.Field(i))
		if name == "" {
			continue
		}
		raw, ok := params[name]
		if !ok {
			continue
		}
		if err := assign(rv.Field(i), raw); err != nil {
			return fmt.Errorf("member %s: %w", name, err)
		}
	}
	return nil
}

func assign(field reflect.Value, raw any) error {
	switch field.Kind() {
	case reflect.String:
		switch v := raw.(type) {
		case string:
			field.SetString(v)
		case int:
			field.SetString(strconv.Itoa(v))
		case bool:
			field.SetString(strconv.FormatBool(v))
		case float64:
			field.SetString(strconv.FormatFloat(v, 'f', -1, 64))
		default:
			return fmt.Errorf("cannot use %T as string", raw)
		}
	case reflect.Int, reflect.Int64:
		switch v := raw.(type) {
		case int:
			field.SetInt(int64(v))
		case float64:
			field.SetInt(int64(v))
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return fmt.Errorf("cannot use %q as int", v)
			}
			field.SetInt(n)
		default:
			return fmt.Errorf("cannot use %T as int", raw)
		}
	case reflect.Bool:
		switch v := raw.(type) {
		case bool:
			field.SetBool(v)
		case int:
			field.SetBool(v != 0)
		case string:
			field.SetBool(v == "true" || v == "1")
		default:
			return fmt.Errorf("cannot use %T as bool", raw)
		}
	case reflect.Float64:
		switch v := raw.(type) {
		case float64:
			field.SetFloat(v)
		case int:
			field.SetFloat(float64(v))
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("cannot use %q as double", v)
			}
			field.SetFloat(f)
		default:
			return fmt.Errorf("cannot use %T as double", raw)
		}
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// WriteResponse marshals resp, a tagged struct, as a methodResponse with a
// single struct parameter.
func WriteResponse(w io.Writer, resp any) error {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<methodResponse><params><param>")
	if err := writeValue(&b, reflect.ValueOf(resp)); err != nil {
		return err
	}
	b.WriteString("</param></params></methodResponse>")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFault marshals an XML-RPC fault response.
func WriteFault(w io.Writer, code int, message string) error {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<methodResponse><fault><value><struct>")
	fmt.Fprintf(&b, "<member><name>faultCode</name><value><int>%d</int></value></member>", code)
	b.WriteString("<member><name>faultString</name><value><string>")
	if err := xml.EscapeText(&b, []byte(message)); err != nil {
		return err
	}
	b.WriteString("</string></value></member>")
	b.WriteString("</struct></value></methodResponse>")
	_, err := io.WriteString(w, b.String())
	return err
}

func writeValue(b *strings.Builder, rv reflect.Value) error {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			b.WriteString("<value><string></string></value>")
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		b.WriteString("<value><struct>")
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			name := fieldName(rt.Field(i))
			if name == "" {
				continue
			}
			b.WriteString("<member><name>")
			if err := xml.EscapeText(b, []byte(name)); err != nil {
				return err
			}
			b.WriteString("</name>")
			if err := writeValue(b, rv.Field(i)); err != nil {
				return err
			}
			b.WriteString("</member>")
		}
		b.WriteString("</struct></value>")
	case reflect.Slice:
		b.WriteString("<value><array><data>")
		for i := 0; i < rv.Len(); i++ {
			if err := writeValue(b, rv.Index(i)); err != nil {
				return err
			}
		}
		b.WriteString("</data></array></value>")
	case reflect.String:
		b.WriteString("<value><string>")
		if err := xml.EscapeText(b, []byte(rv.String())); err != nil {
			return err
		}
		b.WriteString("</string></value>")
	case reflect.Int, reflect.Int64:
		fmt.Fprintf(b, "<value><int>%d</int></value>", rv.Int())
	case reflect.Bool:
		v := "0"
		if rv.Bool() {
			v = "1"
		}
		fmt.Fprintf(b, "<value><boolean>%s</boolean></value>", v)
	case reflect.Float64:
		fmt.Fprintf(b, "<value><double>%s</double></value>",
			strconv.FormatFloat(rv.Float(), 'f', -1, 64))
	default:
		return fmt.Errorf("unsupported response kind %s", rv.Kind())
	}
	return nil
}

func fieldName(f reflect.StructField) string {
	tag := f.Tag.Get("xmlrpc")
	if tag == "" || tag == "-" {
		return ""
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}
