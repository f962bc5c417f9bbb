package datastore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidKey is returned when a websafe key string cannot be decoded.
var ErrInvalidKey = errors.New("datastore: invalid key")

// Key identifies an entity in the hierarchical keyspace. A key has a kind and
// either a string name or a numeric id, plus an optional parent. The full
// ancestor chain is the entity group the key belongs to.
type Key struct {
	Kind   string
	Name   string
	ID     int64
	Parent *Key
}

// NameKey returns a key with a string name.
func NameKey(kind, name string, parent *Key) *Key {
	return &Key{Kind: kind, Name: name, Parent: parent}
}

// IDKey returns a key with a numeric id.
func IDKey(kind string, id int64, parent *Key) *Key {
	return &Key{Kind: kind, ID: id, Parent: parent}
}

// Path returns the slash-separated path of the key, root first,
// e.g. "Profile,alice/Conference,42".
func (k *Key) Path() string {
	var segs []string
	for cur := k; cur != nil; cur = cur.Parent {
		var seg string
		if cur.Name != "" {
			seg = cur.Kind + "," + cur.Name
		} else {
			seg = cur.Kind + ",#" + strconv.FormatInt(cur.ID, 10)
		}
		segs = append(segs, seg)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return strings.Join(segs, "/")
}

// Encode returns the websafe form of the key: URL-safe base64 of its path.
func (k *Key) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(k.Path()))
}

// DecodeKey reverses Encode.
func DecodeKey(websafe string) (*Key, error) {
	raw, err := base64.RawURLEncoding.DecodeString(websafe)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, websafe)
	}
	var key *Key
	for _, seg := range strings.Split(string(raw), "/") {
		kind, ident, ok := strings.Cut(seg, ",")
		if !ok || kind == "" || ident == "" {
			return nil, fmt.Errorf("%w: bad segment %q", ErrInvalidKey, seg)
		}
		k := &Key{Kind: kind, Parent: key}
		if strings.HasPrefix(ident, "#") {
			id, err := strconv.ParseInt(ident[1:], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad id in segment %q", ErrInvalidKey, seg)
			}
			k.ID = id
		} else {
			k.Name = ident
		}
		key = k
	}
	if key == nil {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// Equal reports whether two keys identify the same entity.
func (k *Key) Equal(o *Key) bool {
	if k == nil || o == nil {
		return k == o
	}
	return k.Path() == o.Path()
}

// HasAncestor reports whether ancestor appears in k's ancestor chain
// (a key is considered its own ancestor).
func (k *Key) HasAncestor(ancestor *Key) bool {
	prefix := ancestor.Path()
	path := k.Path()
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
