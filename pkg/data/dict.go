package data

import "sync"

// Dictionary maps the encoded text of a shard's dictionary columns to
// integer keys. Keys are handed out in first-seen order and never reused,
// so a value's key is stable for the shard's lifetime.
type Dictionary struct {
	sync.RWMutex
	keys map[string]int64
	next int64
}

func NewDictionary() *Dictionary {
	return &Dictionary{
		keys: make(map[string]int64),
	}
}

func (d *Dictionary) Encode(val []byte) int64 {
	d.Lock()
	defer d.Unlock()
	key, ok := d.keys[string(val)]
	if ok {
		return key
	}
	key = d.next
	d.keys[string(val)] = key
	d.next++
	return key
}

func (d *Dictionary) Key(val []byte) (int64, bool) {
	d.RLock()
	defer d.RUnlock()
	key, ok := d.keys[string(val)]
	return key, ok
}

func (d *Dictionary) Len() int {
	d.RLock()
	defer d.RUnlock()
	return len(d.keys)
}
