package ffcodecs

// DictionaryItem is a free-form option passed to the codec library as-is.
type DictionaryItem struct {
	Key   string `json:"key"   yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

type DictionaryItems []DictionaryItem

// Get returns the value of the last item with the given key.
func (items DictionaryItems) Get(key string) (string, bool) {
	for idx := len(items) - 1; idx >= 0; idx-- {
		if items[idx].Key == key {
			return items[idx].Value, true
		}
	}
	return "", false
}

// With returns a copy of items with the given key appended; later keys win.
func (items DictionaryItems) With(key, value string) DictionaryItems {
	result := make(DictionaryItems, 0, len(items)+1)
	result = append(result, items...)
	return append(result, DictionaryItem{Key: key, Value: value})
}

type CustomOptionsGetter interface {
	GetCustomOptions() DictionaryItems
}

// WithCustomOptions returns a copy of items followed by the custom options
// of each getter, in order.
func (items DictionaryItems) WithCustomOptions(getters ...CustomOptionsGetter) DictionaryItems {
	result := append(DictionaryItems(nil), items...)
	for _, getter := range getters {
		result = append(result, getter.GetCustomOptions()...)
	}
	return result
}
