package booking

import (
	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/m-mizutani/goerr/v2"
)

// ApplyMergePatch returns a copy of the request with an RFC 7386 merge patch
// applied. Callers use it to seed a fresh record from already-known sender
// data before the first turn. The receiver is not modified.
func (r *Request) ApplyMergePatch(patch []byte) (*Request, error) {
	current, err := sonic.Marshal(r)
	if err != nil {
		return nil, goerr.Wrap(err, "marshal current request")
	}
	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return nil, goerr.Wrap(err, "apply merge patch", goerr.V("patch", string(patch)))
	}
	var out Request
	if err := sonic.Unmarshal(merged, &out); err != nil {
		return nil, goerr.Wrap(err, "patch produced an invalid request", goerr.V("merged", string(merged)))
	}
	if out.CelularContacto != nil {
		normalized := NormalizePhone(*out.CelularContacto)
		out.CelularContacto = &normalized
	}
	return &out, nil
}
