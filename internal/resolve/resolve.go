// Package resolve locates a download URL for an SRA accession (a
// supplemented feature not named by the distilled spec but present in the
// original tool — see original_source/src/prefetch/mod.rs's
// query_entrez/parse_url/identify_url). It queries NCBI's Entrez efetch
// endpoint and scrapes the run's XML for a URL matching the requested
// Provider and quality tier.
package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/grailbio/xsra/internal/xerrors"
)

// Provider identifies which cloud mirror's URL to prefer.
type Provider int

const (
	Https Provider = iota
	GCP
	AWS
)

// String implements fmt.Stringer.
func (p Provider) String() string {
	switch p {
	case Https:
		return "https"
	case GCP:
		return "gcp"
	case AWS:
		return "aws"
	default:
		return "unknown"
	}
}

// urlPrefix is the substring identifying a Provider's URLs in Entrez's
// response, mirroring Provider::url_prefix in the original tool.
func (p Provider) urlPrefix() string {
	switch p {
	case Https:
		return "https://"
	case GCP:
		return "gs://"
	case AWS:
		return "s3://"
	default:
		return ""
	}
}

// Resolver locates a download location for an accession.
type Resolver interface {
	Resolve(ctx context.Context, accession string, fullQuality bool, provider Provider) (string, error)
}

const entrezURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi?db=sra&id=%s&rettype=full"

// EntrezResolver resolves accessions via NCBI's public Entrez efetch
// endpoint, the same endpoint the original tool's query_entrez hits.
type EntrezResolver struct {
	Client *http.Client
}

// NewEntrezResolver returns a Resolver using http.DefaultClient if client is
// nil.
func NewEntrezResolver(client *http.Client) *EntrezResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &EntrezResolver{Client: client}
}

// Resolve implements Resolver.
func (r *EntrezResolver) Resolve(ctx context.Context, accession string, fullQuality bool, provider Provider) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(entrezURL, accession), nil)
	if err != nil {
		return "", err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: entrez request: %v", xerrors.ErrResolution, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading entrez response: %v", xerrors.ErrResolution, err)
	}

	url, ok := ParseURL(accession, string(body), fullQuality, provider)
	if !ok {
		return "", fmt.Errorf("%w: no %s URL found for accession %s", xerrors.ErrResolution, provider, accession)
	}
	return url, nil
}

// ParseURL scans response (Entrez's efetch XML, whitespace-tokenized the
// way the original parse_url does) for a line naming accession's download
// URL matching provider and the requested quality tier.
func ParseURL(accession, response string, fullQuality bool, provider Provider) (string, bool) {
	prefix := provider.urlPrefix()
	for _, line := range strings.Split(strings.ReplaceAll(response, " ", "\n"), "\n") {
		if !strings.Contains(line, "url=") || !strings.Contains(line, accession) {
			continue
		}
		if strings.Contains(line, ".fastq") || strings.Contains(line, ".gz") {
			continue
		}
		if !strings.Contains(line, prefix) {
			continue
		}
		isLite := strings.Contains(line, ".lite")
		if fullQuality && isLite {
			continue
		}
		if !fullQuality && !isLite {
			continue
		}
		url := strings.ReplaceAll(strings.ReplaceAll(line, "url=", ""), "\"", "")
		return url, true
	}
	return "", false
}
