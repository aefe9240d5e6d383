//go:build !linux

package shm

func Create(size int) (int, error) { return -1, ErrUnsupported }

func Attach(id int) (*Segment, error) { return nil, ErrUnsupported }

func Remove(id int) error { return ErrUnsupported }
