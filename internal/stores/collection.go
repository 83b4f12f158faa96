package stores

// Helpers de coleção por id. Todos devolvem slices novos; o estado anterior
// nunca é alterado.

func replaceByID[T any](items []T, id int64, idOf func(T) int64, next T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		if idOf(item) == id {
			out[i] = next
			continue
		}
		out[i] = item
	}
	return out
}

func removeByID[T any](items []T, id int64, idOf func(T) int64) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if idOf(item) != id {
			out = append(out, item)
		}
	}
	return out
}

func appendItem[T any](items []T, next T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, next)
}

func cloneSlice[T any](items []T) []T {
	if items == nil {
		return nil
	}
	return append([]T(nil), items...)
}
