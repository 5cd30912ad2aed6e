package vncengine

import (
	"encoding/binary"
	"io"
)

func ReadUint8(r io.Reader) (uint8, error) {
	var myUint uint8
	if err := binary.Read(r, binary.BigEndian, &myUint); err != nil {
		return 0, err
	}
	return myUint, nil
}

func ReadUint16(r io.Reader) (uint16, error) {
	var myUint uint16
	if err := binary.Read(r, binary.BigEndian, &myUint); err != nil {
		return 0, err
	}
	return myUint, nil
}

func ReadUint32(r io.Reader) (uint32, error) {
	var myUint uint32
	if err := binary.Read(r, binary.BigEndian, &myUint); err != nil {
		return 0, err
	}
	return myUint, nil
}

func ReadBytes(count int, r io.Reader) ([]byte, error) {
	buff := make([]byte, count)
	if _, err := io.ReadFull(r, buff); err != nil {
		return nil, err
	}
	return buff, nil
}

// readPadding discards count padding bytes.
func readPadding(r io.Reader, count int) error {
	_, err := ReadBytes(count, r)
	return err
}

// readTightLength reads Tight's compact length: 1 to 3 bytes, 7 bits
// each, little-endian, with the high bit as continuation flag.
func readTightLength(r io.Reader) (int, error) {
	var length int
	var err error
	var b uint8

	if b, err = ReadUint8(r); err != nil {
		return 0, err
	}
	length = int(b) & 0x7F
	if (b & 0x80) == 0 {
		return length, nil
	}

	if b, err = ReadUint8(r); err != nil {
		return 0, err
	}
	length |= (int(b) & 0x7F) << 7
	if (b & 0x80) == 0 {
		return length, nil
	}

	if b, err = ReadUint8(r); err != nil {
		return 0, err
	}
	length |= int(b) << 14

	return length, nil
}
