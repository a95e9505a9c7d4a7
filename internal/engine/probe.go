package engine

import (
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"strings"
)

type Bus string

const (
	BusUSB Bus = "usb"
	BusPCI Bus = "pci"
)

// Device describes an accelerator recognised by its bus identifiers.
// An empty ProductID or ClassPrefix matches any value.
type Device struct {
	Name        string
	Bus         Bus
	VendorID    string
	ProductID   string
	ClassPrefix string
	Engine      Engine
}

// KnownDevices is ordered by preference: the first attached device wins.
var KnownDevices = []Device{
	{Name: "Intel Neural Compute Stick 2", Bus: BusUSB, VendorID: "03e7", ProductID: "2485", Engine: DNNOpenVINO},
	{Name: "Intel Movidius MyriadX", Bus: BusUSB, VendorID: "03e7", ProductID: "f63b", Engine: DNNOpenVINO},
	{Name: "Intel Neural Compute Stick", Bus: BusUSB, VendorID: "03e7", ProductID: "2150", Engine: DNNOpenVINO},
	{Name: "NVIDIA GPU", Bus: BusPCI, VendorID: "10de", ClassPrefix: "03", Engine: DNNCUDA},
}

type busEntry struct {
	vendor  string
	product string
	class   string
}

// Prober looks for known accelerators in a sysfs tree.
type Prober struct {
	fsys    fs.FS
	log     *slog.Logger
	devices []Device
}

// NewProber reads sysfs through fsys (usually os.DirFS("/sys")). With no
// devices given, KnownDevices is used.
func NewProber(fsys fs.FS, log *slog.Logger, devices ...Device) *Prober {
	if len(devices) == 0 {
		devices = KnownDevices
	}
	return &Prober{fsys: fsys, log: log, devices: devices}
}

// Probe returns the first known device attached to the host, or nil.
func (p *Prober) Probe() *Device {
	scanned := make(map[Bus][]busEntry)
	for i := range p.devices {
		want := p.devices[i]
		entries, ok := scanned[want.Bus]
		if !ok {
			entries = p.scan(want.Bus)
			scanned[want.Bus] = entries
		}
		for _, e := range entries {
			if matches(want, e) {
				p.log.Debug("Accelerator found", "device", want.Name, "vendor", e.vendor, "product", e.product)
				return &want
			}
		}
	}
	return nil
}

func matches(want Device, e busEntry) bool {
	if normalizeID(want.VendorID) != e.vendor {
		return false
	}
	if want.ProductID != "" && normalizeID(want.ProductID) != e.product {
		return false
	}
	if want.ClassPrefix != "" && !strings.HasPrefix(e.class, normalizeID(want.ClassPrefix)) {
		return false
	}
	return true
}

func (p *Prober) scan(bus Bus) []busEntry {
	dir := path.Join("bus", string(bus), "devices")
	dirEntries, err := fs.ReadDir(p.fsys, dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.log.Debug("Cannot list bus devices", "bus", bus, "error", err)
		}
		return nil
	}

	vendorFile, productFile := "idVendor", "idProduct"
	if bus == BusPCI {
		vendorFile, productFile = "vendor", "device"
	}

	var out []busEntry
	for _, de := range dirEntries {
		base := path.Join(dir, de.Name())
		vendor := p.readID(path.Join(base, vendorFile))
		if vendor == "" {
			continue
		}
		out = append(out, busEntry{
			vendor:  vendor,
			product: p.readID(path.Join(base, productFile)),
			class:   p.readID(path.Join(base, "class")),
		})
	}
	return out
}

func (p *Prober) readID(name string) string {
	data, err := fs.ReadFile(p.fsys, name)
	if err != nil {
		return ""
	}
	return normalizeID(string(data))
}

func normalizeID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimPrefix(s, "0x")
}
