package index

var (
	bPosts        = []byte("posts")         // slug -> post json
	bIdxPublished = []byte("idx_published") // invTime + 0x00 + slug
	bIdxTag       = []byte("idx_tag")       // tag -> sub-bucket of published keys
	bIdxCat       = []byte("idx_cat")       // cat -> sub-bucket of published keys
	bMeta         = []byte("meta")          // survives rebuilds; holds the version sequence

	kBuiltAt = []byte("built_at")
)
