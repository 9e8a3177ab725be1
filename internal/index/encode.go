package index

import "encoding/binary"

// key = invTime(8) + 0x00 + slug, so a forward cursor walks newest first and
// equal timestamps fall back to slug order.
func makeTimeSlugKey(unixNano int64, slug string) []byte {
	buf := make([]byte, 8, 8+1+len(slug))
	binary.BigEndian.PutUint64(buf, ^uint64(unixNano))
	buf = append(buf, 0x00)
	buf = append(buf, slug...)
	return buf
}

func slugFromTimeSlugKey(k []byte) string {
	if len(k) < 8+2 || k[8] != 0x00 {
		return ""
	}
	return string(k[9:])
}

func timeFromTimeSlugKey(k []byte) int64 {
	if len(k) < 8 {
		return 0
	}
	return int64(^binary.BigEndian.Uint64(k[:8]))
}
