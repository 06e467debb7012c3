package auth

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// maxFrameSize caps one encrypted frame. API traffic is small JSON lines;
// anything past this is a corrupt or hostile stream.
const maxFrameSize = 2 * 1024 * 1024

// Conn encrypts an API session. Each Write becomes one length-prefixed
// chacha20poly1305 frame whose 96-bit nonce embeds a send counter, so a
// session key never sees a repeated nonce.
type Conn struct {
	net.Conn
	aead     cipher.AEAD
	writeSeq uint64
	pending  bytes.Buffer // decrypted bytes not yet consumed by Read
	mu       sync.Mutex
}

// WrapConn upgrades conn with the 32-byte session key from the handshake.
func WrapConn(conn net.Conn, sessionKey []byte) (net.Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn, aead: aead}, nil
}

// Write seals p into a single frame: uint32 big-endian length, the nonce,
// then the ciphertext, sent as one buffer.
func (s *Conn) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var nonce [chacha20poly1305.NonceSize]byte
	binary.BigEndian.PutUint64(nonce[4:], s.writeSeq)
	s.writeSeq++

	ct := s.aead.Seal(nil, nonce[:], p, nil)
	frame := make([]byte, 4+len(nonce)+len(ct))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(nonce)+len(ct)))
	copy(frame[4:], nonce[:])
	copy(frame[4+len(nonce):], ct)

	if _, err := s.Conn.Write(frame); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read refills from the next frame when the pending buffer runs dry. A frame
// that fails authentication poisons the connection with the AEAD error.
func (s *Conn) Read(p []byte) (int, error) {
	if s.pending.Len() == 0 {
		var hdr [4]byte
		if n, err := io.ReadFull(s.Conn, hdr[:]); err != nil {
			return n, err
		}
		length := binary.BigEndian.Uint32(hdr[:])
		if length < chacha20poly1305.NonceSize || length > maxFrameSize {
			return 0, io.ErrUnexpectedEOF
		}

		frame := make([]byte, length)
		if n, err := io.ReadFull(s.Conn, frame); err != nil {
			return n, err
		}

		pt, err := s.aead.Open(nil, frame[:chacha20poly1305.NonceSize], frame[chacha20poly1305.NonceSize:], nil)
		if err != nil {
			return 0, err
		}
		s.pending.Write(pt)
	}
	return s.pending.Read(p)
}
