package mailauth

const dkimVersion = "DKIM1"

// ParseDKIM parses a DKIM key record ("v=DKIM1; h=sha256; p=...").
func ParseDKIM(txt string) (Tags, bool) {
	return parseTags(txt, dkimVersion)
}

// BuildDKIM serializes a DKIM key record.
func BuildDKIM(tags Tags) string {
	return buildTags(dkimVersion, tags)
}
