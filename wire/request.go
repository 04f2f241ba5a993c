package wire

import "github.com/bamilab/quartznet/common"

// ProtocolVersion is the codec for a protocol-version frame (supplemented
// from original_source/src/message.rs ProtocolVersion). Only the encoding
// is defined here; no socket sends or reads this frame, and peer.Loop
// starts classifying Event/Request/Response frames from the first frame.
type ProtocolVersion struct {
	Major uint16
	Minor uint16
}

// CurrentProtocolVersion is this implementation's protocol version.
var CurrentProtocolVersion = ProtocolVersion{Major: 1, Minor: 0}

func (v ProtocolVersion) Encode(w *Writer) {
	w.WriteU16(v.Major)
	w.WriteU16(v.Minor)
}

func DecodeProtocolVersion(r *Reader) (ProtocolVersion, error) {
	major, err := r.ReadU16("protocol version major")
	if err != nil {
		return ProtocolVersion{}, err
	}
	minor, err := r.ReadU16("protocol version minor")
	if err != nil {
		return ProtocolVersion{}, err
	}
	return ProtocolVersion{Major: major, Minor: minor}, nil
}

// PostsRequest asks a publisher's timeline for a contiguous id range,
// filtered by a present-bit mask. PresentMask is ceil(PostIDCount/8) bytes;
// bit i (LSB-first within each byte) represents PostIDStart+i.
type PostsRequest struct {
	PublisherKey common.PublicKey
	PostIDStart  uint64
	PostIDCount  uint16
	PresentMask  []byte
}

func maskLen(count uint16) int {
	n := int(count) / 8
	if int(count)%8 > 0 {
		n++
	}
	return n
}

// GetBit reads bit index (LSB-first within its byte) of mask.
func GetBit(mask []byte, index uint16) bool {
	b := mask[index/8]
	return b&(1<<(index%8)) > 0
}

// SetBit sets bit index (LSB-first within its byte) of mask.
func SetBit(mask []byte, index uint16) {
	mask[index/8] |= 1 << (index % 8)
}

func (req PostsRequest) Encode(w *Writer) {
	w.WritePublicKey(req.PublisherKey)
	w.WriteU64(req.PostIDStart)
	w.WriteU16(req.PostIDCount)
	w.WriteRaw(req.PresentMask)
}

func DecodePostsRequest(r *Reader) (PostsRequest, error) {
	pk, err := r.ReadPublicKey("posts request publisher key")
	if err != nil {
		return PostsRequest{}, err
	}
	start, err := r.ReadU64("posts request start")
	if err != nil {
		return PostsRequest{}, err
	}
	count, err := r.ReadU16("posts request count")
	if err != nil {
		return PostsRequest{}, err
	}
	mask, err := r.ReadRaw(maskLen(count), "posts request present mask")
	if err != nil {
		return PostsRequest{}, err
	}
	return PostsRequest{PublisherKey: pk, PostIDStart: start, PostIDCount: count, PresentMask: append([]byte(nil), mask...)}, nil
}

// PostsResponse carries the found-bit mask and the encoded posts for every
// set bit, in ascending id order.
type PostsResponse struct {
	FoundMask []byte
	Posts     []Post
}

func (resp PostsResponse) Encode(w *Writer) {
	w.WriteRaw(resp.FoundMask)
	w.WriteU16(uint16(len(resp.Posts)))
	for _, p := range resp.Posts {
		p.Encode(w)
	}
}

func DecodePostsResponse(r *Reader, maskLength int) (PostsResponse, error) {
	mask, err := r.ReadRaw(maskLength, "posts response found mask")
	if err != nil {
		return PostsResponse{}, err
	}
	n, err := r.ReadU16("posts response post count")
	if err != nil {
		return PostsResponse{}, err
	}
	posts := make([]Post, 0, n)
	for i := uint16(0); i < n; i++ {
		p, err := DecodePost(r)
		if err != nil {
			return PostsResponse{}, err
		}
		posts = append(posts, p)
	}
	return PostsResponse{FoundMask: append([]byte(nil), mask...), Posts: posts}, nil
}

// BlocksRequest asks for the raw bytes of specific blocks of a post.
// Reserved: current handlers log "not supported" and do not respond.
type BlocksRequest struct {
	PostID   common.Hash
	BlockIDs []common.Hash
}

// SearchRequest is the supplemented tag-based post query
// (original_source/src/message.rs PostSearchRequest), wired as RequestSearch.
type SearchRequest struct {
	Keywords []string
}

func (req SearchRequest) Encode(w *Writer) {
	w.WriteU16(uint16(len(req.Keywords)))
	for _, k := range req.Keywords {
		w.WriteString16(k)
	}
}

func DecodeSearchRequest(r *Reader) (SearchRequest, error) {
	n, err := r.ReadU16("search request keyword count")
	if err != nil {
		return SearchRequest{}, err
	}
	keywords := make([]string, 0, n)
	for i := uint16(0); i < n; i++ {
		k, err := r.ReadString16("search request keyword")
		if err != nil {
			return SearchRequest{}, err
		}
		keywords = append(keywords, k)
	}
	return SearchRequest{Keywords: keywords}, nil
}

// SearchResponse carries the matched posts for a SearchRequest.
type SearchResponse struct {
	Posts []Post
}

func (resp SearchResponse) Encode(w *Writer) {
	w.WriteU16(uint16(len(resp.Posts)))
	for _, p := range resp.Posts {
		p.Encode(w)
	}
}

func DecodeSearchResponse(r *Reader) (SearchResponse, error) {
	n, err := r.ReadU16("search response post count")
	if err != nil {
		return SearchResponse{}, err
	}
	posts := make([]Post, 0, n)
	for i := uint16(0); i < n; i++ {
		p, err := DecodePost(r)
		if err != nil {
			return SearchResponse{}, err
		}
		posts = append(posts, p)
	}
	return SearchResponse{Posts: posts}, nil
}
