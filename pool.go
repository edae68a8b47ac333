package termsixel

import "sync"

// packetPool reuses writer buffers between encodes
var packetPool = sync.Pool{
	New: func() any {
		// a full packet plus room for the longest single put
		buf := make([]byte, 0, PacketSize+64)
		return &buf
	},
}

func getPacketBuffer() *[]byte {
	bufPtr := packetPool.Get().(*[]byte)
	*bufPtr = (*bufPtr)[:0]
	return bufPtr
}

func putPacketBuffer(bufPtr *[]byte) {
	if bufPtr == nil {
		return
	}
	// don't keep buffers that grew far past a packet
	if cap(*bufPtr) > PacketSize*4 {
		return
	}
	packetPool.Put(bufPtr)
}
