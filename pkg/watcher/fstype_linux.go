//go:build linux

package watcher

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Superblock magic numbers from statfs(2).
const (
	magicNFS  = 0x6969
	magicSMB  = 0x517B
	magicCIFS = 0xFF534D42
	magicSMB2 = 0xFE534D42
	magicFUSE = 0x65735546
)

func detectFilesystemType(path string) FilesystemType {
	target := path
	var st unix.Statfs_t
	for {
		err := unix.Statfs(target, &st)
		if err == nil {
			break
		}
		parent := filepath.Dir(target)
		if parent == target {
			return FSTypeUnknown
		}
		target = parent
	}

	switch uint32(st.Type) {
	case magicNFS:
		return FSTypeNFS
	case magicSMB, magicCIFS, magicSMB2:
		return FSTypeSMB
	case magicFUSE:
		if isSSHFSMount(target) {
			return FSTypeSSHFS
		}
		return FSTypeFUSE
	}
	return FSTypeLocal
}

// isSSHFSMount reports whether the longest mount point containing path is a
// fuse.sshfs mount.
func isSSHFSMount(path string) bool {
	f, err := os.Open("/proc/self/mounts")
	if err != nil {
		return false
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	best, bestType := "", ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		mnt, fstype := fields[1], fields[2]
		if (abs == mnt || strings.HasPrefix(abs, strings.TrimSuffix(mnt, "/")+"/")) && len(mnt) > len(best) {
			best, bestType = mnt, fstype
		}
	}
	return bestType == "fuse.sshfs"
}
