package unlock

import (
	"encoding/binary"
	"fmt"
)

// FrameLen is the fixed size of every instruction frame exchanged with the
// lock over the wireless link. The layout is bit-exact for firmware compat:
//
//	[0:2]   header 0x0F 0x08
//	[2:8]   application id, big-endian
//	[8:12]  key bytes (seed key or session key, zero-padded)
//	[12:14] command bytes
//	[14:16] zero padding
const FrameLen = 16

var (
	frameHeader    = [2]byte{0x0F, 0x08}
	cmdKeyExchange = [2]byte{0x01, 0x01}
	cmdUnlock      = [2]byte{0x02, 0x01}
)

func buildFrame(appID uint64, key []byte, cmd [2]byte) [FrameLen]byte {
	var f [FrameLen]byte
	f[0], f[1] = frameHeader[0], frameHeader[1]

	var id [8]byte
	binary.BigEndian.PutUint64(id[:], appID)
	copy(f[2:8], id[2:])

	if len(key) > 4 {
		key = key[:4]
	}
	copy(f[8:12], key)

	f[12], f[13] = cmd[0], cmd[1]
	return f
}

// keyExchangeFrame carries the pre-shared seed key and asks the lock for a
// session key.
func keyExchangeFrame(appID uint64, seedKey []byte) [FrameLen]byte {
	return buildFrame(appID, seedKey, cmdKeyExchange)
}

// unlockFrame carries the session key obtained from the key exchange.
func unlockFrame(appID uint64, sessionKey []byte) [FrameLen]byte {
	return buildFrame(appID, sessionKey, cmdUnlock)
}

// sessionKey extracts the session key from a key-exchange response.
func sessionKey(resp []byte) ([]byte, error) {
	if len(resp) < 12 {
		return nil, fmt.Errorf("%w: key exchange response too short (%d bytes)", ErrLinkFailure, len(resp))
	}
	return resp[8:12], nil
}
