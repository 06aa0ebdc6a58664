package pgdoc

import (
	"strings"

	perr "unievents/internal/platform/errors"
	"unievents/internal/platform/store/docstore"

	jsoniter "github.com/json-iterator/go"
)

// Numbers decode as json.Number so int64 millisecond timestamps survive the round trip
var codec = jsoniter.Config{UseNumber: true, SortMapKeys: true}.Froze()

type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

func encode(f docstore.Fields) (string, error) {
	nf, err := docstore.Normalize(f)
	if err != nil {
		return "", err
	}
	s, err := codec.MarshalToString(nf)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeInvalidArgument, "encode document")
	}
	return s, nil
}

func decode(raw []byte) (docstore.Fields, error) {
	var m map[string]any
	if err := codec.Unmarshal(raw, &m); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeTransient, "decode document")
	}
	f := make(docstore.Fields, len(m))
	for k, v := range m {
		f[k] = scalar(v)
	}
	return f, nil
}

// scalar maps decoded JSON onto docstore value types; nested values are not produced by encode
func scalar(v any) any {
	n, ok := v.(number)
	if !ok {
		return v
	}
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	fl, _ := n.Float64()
	return fl
}
