package tracing

// Span attribute keys for asset operations.
const (
	AttrNamespace = "assetq.namespace"
	AttrKind      = "assetq.kind"
	AttrFile      = "assetq.file"
	AttrHandle    = "assetq.handle"
	AttrVersion   = "assetq.version"
	AttrDeduped   = "assetq.deduped"
	AttrPath      = "assetq.path"
	AttrURL       = "assetq.url"
)

// Span names.
const (
	SpanRegister = "assetq.register"
	SpanEnqueue  = "assetq.enqueue"
	SpanLocalize = "assetq.localize"
	SpanManifest = "assetq.manifest"
)
