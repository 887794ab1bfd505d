package mailauth

const dmarcVersion = "DMARC1"

// ParseDMARC parses a DMARC policy record ("v=DMARC1; p=none; ...").
func ParseDMARC(txt string) (Tags, bool) {
	return parseTags(txt, dmarcVersion)
}

// BuildDMARC serializes a DMARC policy record.
func BuildDMARC(tags Tags) string {
	return buildTags(dmarcVersion, tags)
}
