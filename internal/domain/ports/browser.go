package ports

import "context"

// FormSubmitter delivers a hidden POST form into a named browser frame.
// This is the only way card-network collection and step-up pages are
// reached; the process never fetches those URLs itself.
type FormSubmitter interface {
	SubmitForm(ctx context.Context, target, action string, fields map[string]string) error
}

// FramePeek exposes a frame's current navigated URL when same-origin access
// permits. Cross-origin access fails with an error, which callers are
// expected to swallow - that is the normal case during the bank hop.
type FramePeek interface {
	FrameURL(target string) (string, error)
}
