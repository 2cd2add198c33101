//go:build windows

package filemanager

func isCrossDevice(err error) bool {
	return false
}
