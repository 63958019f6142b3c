// Package platform detects the host operating system and architecture and
// maps them onto the closed set of platforms the provisioner knows how to
// handle.
package platform

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/uthrapathy-m/cks-course-environment/domain"
)

// families maps an os-release ID (or ID_LIKE token) to its family.
var families = map[string]domain.Family{
	"ubuntu":    domain.FamilyDebian,
	"debian":    domain.FamilyDebian,
	"centos":    domain.FamilyRHEL,
	"rhel":      domain.FamilyRHEL,
	"rocky":     domain.FamilyRHEL,
	"almalinux": domain.FamilyRHEL,
	"fedora":    domain.FamilyRHEL,
}

// testedVersions is the allow-list of releases the provisioning pipeline
// has been exercised on. Anything else recognized needs AllowUntested.
var testedVersions = map[string][]string{
	"ubuntu":    {"20.04", "22.04", "24.04"},
	"debian":    {"11", "12"},
	"centos":    {"8", "9"},
	"rhel":      {"8", "9"},
	"rocky":     {"8", "9"},
	"almalinux": {"9"},
}

// archTags maps `uname -m` output to the normalized architecture tag.
var archTags = map[string]domain.Arch{
	"x86_64":  domain.ArchAMD64,
	"amd64":   domain.ArchAMD64,
	"aarch64": domain.ArchARM64,
	"arm64":   domain.ArchARM64,
	"armv7l":  domain.ArchARM,
	"armv6l":  domain.ArchARM,
}

// Fingerprint resolves the PlatformProfile for the local host. It reads
// /etc/os-release and `uname -m`, refusing unknown distributions and
// architectures outright, and untested releases unless allowUntested.
func Fingerprint(log *logrus.Entry, allowUntested bool) (domain.PlatformProfile, error) {
	f, err := os.Open(domain.OSReleasePath)
	if err != nil {
		return domain.PlatformProfile{}, fmt.Errorf("reading %s: %w", domain.OSReleasePath, err)
	}
	defer f.Close()

	machine, err := unameMachine()
	if err != nil {
		return domain.PlatformProfile{}, err
	}

	return Resolve(log, f, machine, allowUntested)
}

// Resolve builds a PlatformProfile from an os-release stream and a machine
// hardware name. Split out from Fingerprint so tests can feed both inputs.
func Resolve(log *logrus.Entry, osRelease io.Reader, machine string, allowUntested bool) (domain.PlatformProfile, error) {
	fields, err := ParseOSRelease(osRelease)
	if err != nil {
		return domain.PlatformProfile{}, err
	}

	id := fields["ID"]
	family, ok := families[id]
	if !ok {
		// Fall back to ID_LIKE so close derivatives of a known
		// distribution still resolve to the right family.
		for _, like := range strings.Fields(fields["ID_LIKE"]) {
			if fam, known := families[like]; known {
				family, ok = fam, true
				break
			}
		}
	}
	if !ok {
		return domain.PlatformProfile{}, &domain.UnsupportedPlatformError{DistributionID: id}
	}

	version := fields["VERSION_ID"]
	untested := !isTested(id, version)
	if untested {
		if !allowUntested {
			return domain.PlatformProfile{}, &domain.UntestedVersionError{DistributionID: id, VersionID: version}
		}
		log.Warnf("%s %s is not on the tested release list, continuing because untested releases are allowed", id, version)
	}

	arch, err := MachineArch(machine)
	if err != nil {
		return domain.PlatformProfile{}, err
	}

	return domain.PlatformProfile{
		Family:         family,
		DistributionID: id,
		VersionID:      version,
		Arch:           arch,
		Untested:       untested,
	}, nil
}

// ParseOSRelease reads the KEY=value pairs of an os-release file. Values
// may be double-quoted per os-release(5).
func ParseOSRelease(r io.Reader) (map[string]string, error) {
	fields := map[string]string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		fields[key] = strings.Trim(value, `"`)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}

// MachineArch maps a machine hardware name to its normalized tag.
func MachineArch(machine string) (domain.Arch, error) {
	if arch, ok := archTags[machine]; ok {
		return arch, nil
	}
	return "", &domain.UnsupportedArchitectureError{Machine: machine}
}

func isTested(id, version string) bool {
	for _, tested := range testedVersions[id] {
		if version == tested {
			return true
		}
	}
	return false
}

func unameMachine() (string, error) {
	out, err := exec.Command("uname", "-m").Output()
	if err != nil {
		return "", fmt.Errorf("detecting machine architecture: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
