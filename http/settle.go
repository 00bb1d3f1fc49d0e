package http

// SettleDefault applies the default outcome policy: an OK response without
// error resolves with its body, anything else rejects with a *ResponseError.
// After-response hooks may delegate to it.
func SettleDefault(resp *Response, s Settler) {
	if resp.OK && resp.Err == nil {
		s.Resolve(resp.Body)
		return
	}
	s.Reject(&ResponseError{Response: resp})
}
