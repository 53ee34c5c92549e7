// internal/discovery/usb/database.go
package usb

import (
	"github.com/google/gousb"
)

// DeviceDatabase contains known USB/UART bridges for identification
type DeviceDatabase struct {
	vendors map[gousb.ID]*VendorInfo
}

// VendorInfo contains vendor-specific information
type VendorInfo struct {
	Name     string
	products map[gousb.ID]*ProductInfo
}

// ProductInfo contains product-specific information
type ProductInfo struct {
	Name       string
	Confidence float64
}

// NewDeviceDatabase creates and initializes the device database
func NewDeviceDatabase() *DeviceDatabase {
	db := &DeviceDatabase{
		vendors: make(map[gousb.ID]*VendorInfo),
	}
	db.initializeDatabase()
	return db
}

// initializeDatabase populates the known bridges
func (db *DeviceDatabase) initializeDatabase() {
	// Silicon Labs (0x10C4)
	silabs := &VendorInfo{
		Name:     "Silicon Labs",
		products: make(map[gousb.ID]*ProductInfo),
	}

	// The 168x ships with a CP2102. Other CP210x parts share the driver.
	silabs.products[0xEA60] = &ProductInfo{
		Name:       "CP2102 USB to UART Bridge Controller",
		Confidence: 0.9,
	}
	silabs.products[0xEA70] = &ProductInfo{
		Name:       "CP2105 Dual USB to UART Bridge Controller",
		Confidence: 0.3,
	}
	silabs.products[0xEA71] = &ProductInfo{
		Name:       "CP2108 Quad USB to UART Bridge Controller",
		Confidence: 0.3,
	}

	db.vendors[0x10C4] = silabs
}

// IsKnownVendor checks if a vendor ID is in the database
func (db *DeviceDatabase) IsKnownVendor(vendorID gousb.ID) bool {
	_, exists := db.vendors[vendorID]
	return exists
}

// GetVendorInfo retrieves vendor information
func (db *DeviceDatabase) GetVendorInfo(vendorID gousb.ID) *VendorInfo {
	return db.vendors[vendorID]
}

// GetProductInfo retrieves product information from vendor
func (vi *VendorInfo) GetProductInfo(productID gousb.ID) *ProductInfo {
	return vi.products[productID]
}

// Lookup returns vendor and product information for a known bridge
func (db *DeviceDatabase) Lookup(vendorID, productID gousb.ID) (*VendorInfo, *ProductInfo, bool) {
	vendor := db.GetVendorInfo(vendorID)
	if vendor == nil {
		return nil, nil, false
	}
	product := vendor.GetProductInfo(productID)
	if product == nil {
		return nil, nil, false
	}
	return vendor, product, true
}

// GetTotalProductCount returns total number of known products
func (db *DeviceDatabase) GetTotalProductCount() int {
	total := 0
	for _, vendor := range db.vendors {
		total += len(vendor.products)
	}
	return total
}

// AddProduct adds a product, creating the vendor when needed
func (db *DeviceDatabase) AddProduct(vendorID, productID gousb.ID, vendorName string, info *ProductInfo) {
	vendor, exists := db.vendors[vendorID]
	if !exists {
		vendor = &VendorInfo{Name: vendorName, products: make(map[gousb.ID]*ProductInfo)}
		db.vendors[vendorID] = vendor
	}
	vendor.products[productID] = info
}
