package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/stashdb/stashdb/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasPath   byte = 1 << 0
	hasKey    byte = 1 << 1
	hasValue  byte = 1 << 2
	hasPrefix byte = 1 << 3
	hasKeys   byte = 1 << 4
	hasErr    byte = 1 << 5
	hasKind   byte = 1 << 6
)

// Bit flags for the boolean fields
const (
	boolCreateIfMissing byte = 1 << 0
	boolFound           byte = 1 << 1
)

// Fixed header layout: MsgType (1) + flags (1) + bools (1) + Handle (4) +
// KeepLogFileNum (4). Handle and KeepLogFileNum are written unconditionally
// since zero is a valid value for both.
const headerSize = 11

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags bytes
	var flags byte = 0
	var bools byte = 0

	if msg.CreateIfMissing {
		bools |= boolCreateIfMissing
	}
	if msg.Found {
		bools |= boolFound
	}

	// Write the fixed numeric fields
	binary.BigEndian.PutUint32(result[3:7], msg.Handle)
	binary.BigEndian.PutUint32(result[7:11], msg.KeepLogFileNum)

	// Set position for writing
	pos := headerSize

	// writeString appends a length-prefixed string
	writeString := func(s string) {
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(s)))
		pos += 4
		copy(result[pos:pos+len(s)], s)
		pos += len(s)
	}

	// Handle Path
	if msg.Path != "" {
		flags |= hasPath
		writeString(msg.Path)
	}

	// Handle Key
	if msg.Key != "" {
		flags |= hasKey
		writeString(msg.Key)
	}

	// Handle Value
	if msg.Value != "" {
		flags |= hasValue
		writeString(msg.Value)
	}

	// Handle Prefix
	if msg.Prefix != "" {
		flags |= hasPrefix
		writeString(msg.Prefix)
	}

	// Handle Keys
	if msg.Keys != nil {
		flags |= hasKeys

		// Write key count
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Keys)))
		pos += 4

		// Write each key length-prefixed
		for _, key := range msg.Keys {
			writeString(key)
		}
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		writeString(msg.Err)
	}

	// Handle Kind
	if msg.Kind != "" {
		flags |= hasKind
		writeString(msg.Kind)
	}

	// Set flag bytes after knowing which fields are present
	result[1] = flags
	result[2] = bools

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type and flag bytes
	msg.MsgType = common.MessageType(data[0])
	flags := data[1]
	bools := data[2]

	msg.CreateIfMissing = bools&boolCreateIfMissing != 0
	msg.Found = bools&boolFound != 0

	// Read the fixed numeric fields
	msg.Handle = binary.BigEndian.Uint32(data[3:7])
	msg.KeepLogFileNum = binary.BigEndian.Uint32(data[7:11])

	// Initialize read position
	pos := headerSize

	// readString consumes a length-prefixed string
	readString := func(field string) (string, error) {
		if pos+4 > len(data) {
			return "", fmt.Errorf("data too short for %s length", field)
		}
		strLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(strLen) > len(data) {
			return "", fmt.Errorf("data too short for %s data", field)
		}
		s := string(data[pos : pos+int(strLen)])
		pos += int(strLen)
		return s, nil
	}

	var err error

	// Read Path if present
	if flags&hasPath != 0 {
		if msg.Path, err = readString("path"); err != nil {
			return err
		}
	} else {
		msg.Path = ""
	}

	// Read Key if present
	if flags&hasKey != 0 {
		if msg.Key, err = readString("key"); err != nil {
			return err
		}
	} else {
		msg.Key = ""
	}

	// Read Value if present
	if flags&hasValue != 0 {
		if msg.Value, err = readString("value"); err != nil {
			return err
		}
	} else {
		msg.Value = ""
	}

	// Read Prefix if present
	if flags&hasPrefix != 0 {
		if msg.Prefix, err = readString("prefix"); err != nil {
			return err
		}
	} else {
		msg.Prefix = ""
	}

	// Read Keys if present
	if flags&hasKeys != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for key count")
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		// Sanity bound: every key needs at least its length prefix
		if int(count) > (len(data)-pos)/4 {
			return fmt.Errorf("key count %d exceeds remaining data", count)
		}

		msg.Keys = make([]string, count)
		for i := range msg.Keys {
			if msg.Keys[i], err = readString("keys entry"); err != nil {
				return err
			}
		}
	} else {
		msg.Keys = nil
	}

	// Read Err if present
	if flags&hasErr != 0 {
		if msg.Err, err = readString("error"); err != nil {
			return err
		}
	} else {
		msg.Err = ""
	}

	// Read Kind if present
	if flags&hasKind != 0 {
		if msg.Kind, err = readString("kind"); err != nil {
			return err
		}
	} else {
		msg.Kind = ""
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerSize

	// Add sizes for fields that require length encoding
	if msg.Path != "" {
		size += 4 + len(msg.Path)
	}
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != "" {
		size += 4 + len(msg.Value)
	}
	if msg.Prefix != "" {
		size += 4 + len(msg.Prefix)
	}
	if msg.Keys != nil {
		size += 4 // key count
		for _, key := range msg.Keys {
			size += 4 + len(key)
		}
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Kind != "" {
		size += 4 + len(msg.Kind)
	}

	return size
}
