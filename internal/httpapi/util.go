package httpapi

import "github.com/bytedance/sonic"

// marshalJSON serializes the response bodies stored in the query cache
// with sonic. This is the only sonic call in the service; gin's own JSON
// rendering and cache.Key use their default encoders.
func marshalJSON(v interface{}) ([]byte, error) {
	return sonic.Marshal(v)
}
