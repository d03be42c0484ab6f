package pagecache

// PageKey addresses a single page: (fileID, pageIndex). Equal iff both
// fields are equal; ordered lexicographically on (fileID, pageIndex),
// which is the canonical order batched page-lock acquisition sorts on to
// stay deadlock-free with any concurrent single-key exclusive acquirer.
type PageKey struct {
	FileID    uint64
	PageIndex uint64
}

// Less reports whether k sorts before other in canonical (fileID,
// pageIndex) order.
func (k PageKey) Less(other PageKey) bool {
	if k.FileID != other.FileID {
		return k.FileID < other.FileID
	}
	return k.PageIndex < other.PageIndex
}

// PinnedPage has the same shape as PageKey but is a distinct type so
// that a pinned page's map key can never collide with a queue's PageKey
// map, even though the (fileID, pageIndex) values overlap.
type PinnedPage struct {
	FileID    uint64
	PageIndex uint64
}

func pinnedKey(k PageKey) PinnedPage {
	return PinnedPage{FileID: k.FileID, PageIndex: k.PageIndex}
}

func (p PinnedPage) pageKey() PageKey {
	return PageKey{FileID: p.FileID, PageIndex: p.PageIndex}
}
