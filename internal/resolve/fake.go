package resolve

import "context"

// FakeResolver is a fixed-answer Resolver for tests, mirroring the
// FakeSource convention in internal/sra.
type FakeResolver struct {
	URL string
	Err error
}

// Resolve implements Resolver.
func (f *FakeResolver) Resolve(ctx context.Context, accession string, fullQuality bool, provider Provider) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.URL, nil
}
