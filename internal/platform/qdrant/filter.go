package qdrant

// namespaceFilter scopes a search to one tenant's points. Qdrant keeps every
// namespace in a single collection, so the payload key is the only boundary.
func namespaceFilter(namespace string) map[string]any {
	return map[string]any{"must": []any{
		map[string]any{"key": payloadNamespaceKey, "match": map[string]any{"value": namespace}},
	}}
}
