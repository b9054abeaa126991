package resolve

import "testing"

const sampleResponse = `
<RUN_SET>
<SRAFile cluster_name="public" filename="SRR000001.lite.1" url="https://sra-downloadb.be-md.ncbi.nlm.nih.gov/sos1/sra-pub-run-1/SRR000001/SRR000001.lite.1" />
<SRAFile cluster_name="public" filename="SRR000001.1" url="https://sra-downloadb.be-md.ncbi.nlm.nih.gov/sos1/sra-pub-run-1/SRR000001/SRR000001.1" />
<SRAFile cluster_name="public" filename="SRR000001.fastq.gz" url="https://sra-downloadb.be-md.ncbi.nlm.nih.gov/sos1/sra-pub-run-1/SRR000001/SRR000001.fastq.gz" />
</RUN_SET>
`

func TestParseURLPrefersFullQuality(t *testing.T) {
	url, ok := ParseURL("SRR000001", sampleResponse, true, Https)
	if !ok {
		t.Fatal("expected a match")
	}
	if url != "https://sra-downloadb.be-md.ncbi.nlm.nih.gov/sos1/sra-pub-run-1/SRR000001/SRR000001.1" {
		t.Errorf("unexpected url: %s", url)
	}
}

func TestParseURLPrefersLite(t *testing.T) {
	url, ok := ParseURL("SRR000001", sampleResponse, false, Https)
	if !ok {
		t.Fatal("expected a match")
	}
	if url != "https://sra-downloadb.be-md.ncbi.nlm.nih.gov/sos1/sra-pub-run-1/SRR000001/SRR000001.lite.1" {
		t.Errorf("unexpected url: %s", url)
	}
}

func TestParseURLSkipsFastqGz(t *testing.T) {
	_, ok := ParseURL("SRR000002", `url="https://example.com/SRR000002.fastq.gz"`, true, Https)
	if ok {
		t.Error("expected no match for a .fastq.gz entry")
	}
}

func TestParseURLNoMatch(t *testing.T) {
	if _, ok := ParseURL("SRR999999", sampleResponse, true, Https); ok {
		t.Error("expected no match for an absent accession")
	}
}

func TestFakeResolver(t *testing.T) {
	f := &FakeResolver{URL: "s3://bucket/key.sra"}
	url, err := f.Resolve(nil, "SRR1", true, AWS)
	if err != nil {
		t.Fatal(err)
	}
	if url != "s3://bucket/key.sra" {
		t.Errorf("url = %q, want s3://bucket/key.sra", url)
	}
}
