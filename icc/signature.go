package icc

type Signature uint32

const (
	UnknownSignature     Signature = 0
	ProfileFileSignature Signature = 0x61637370 // 'acsp'

	// Tag type signatures
	TextTagSignature               Signature = 0x74657874 // 'text'
	DescSignature                  Signature = 0x64657363 // 'desc'
	MultiLocalisedUnicodeSignature Signature = 0x6D6C7563 // 'mluc'
	CurveTypeSignature             Signature = 0x63757276 // 'curv'
	ParametricCurveTypeSignature   Signature = 0x70617261 // 'para'
	XYZTypeSignature               Signature = 0x58595A20 // 'XYZ '
	S15Fixed16ArrayTypeSignature   Signature = 0x73663332 // 'sf32'
	Lut8TypeSignature              Signature = 0x6D667431 // 'mft1'
	Lut16TypeSignature             Signature = 0x6D667432 // 'mft2'
	LutAtoBTypeSignature           Signature = 0x6D414220 // 'mAB '
	LutBtoATypeSignature           Signature = 0x6D424120 // 'mBA '
	CICPTypeSignature              Signature = 0x63696370 // 'cicp'

	// Tag signatures
	DeviceManufacturerDescriptionSignature Signature = 0x646d6e64 // 'dmnd'
	DeviceModelDescriptionSignature        Signature = 0x646d6464 // 'dmdd'
	CopyrightTagSignature                  Signature = 0x63707274 // 'cprt'
	MediaWhitePointTagSignature            Signature = 0x77747074 // 'wtpt'
	ChromaticAdaptationTagSignature        Signature = 0x63686164 // 'chad'
	RedMatrixColumnTagSignature            Signature = 0x7258595A // 'rXYZ'
	GreenMatrixColumnTagSignature          Signature = 0x6758595A // 'gXYZ'
	BlueMatrixColumnTagSignature           Signature = 0x6258595A // 'bXYZ'
	RedTRCTagSignature                     Signature = 0x72545243 // 'rTRC'
	GreenTRCTagSignature                   Signature = 0x67545243 // 'gTRC'
	BlueTRCTagSignature                    Signature = 0x62545243 // 'bTRC'
	GrayTRCTagSignature                    Signature = 0x6B545243 // 'kTRC'
	AToB0TagSignature                      Signature = 0x41324230 // 'A2B0'
	AToB1TagSignature                      Signature = 0x41324231 // 'A2B1'
	AToB2TagSignature                      Signature = 0x41324232 // 'A2B2'
	BToA0TagSignature                      Signature = 0x42324130 // 'B2A0'
	BToA1TagSignature                      Signature = 0x42324131 // 'B2A1'
	BToA2TagSignature                      Signature = 0x42324132 // 'B2A2'
	CICPTagSignature                       Signature = 0x63696370 // 'cicp'

	AdobeManufacturerSignature      Signature = 0x41444245 // 'ADBE'
	AppleManufacturerSignature      Signature = 0x6170706c // 'appl'
	AppleUpperManufacturerSignature Signature = 0x4150504c // 'APPL'
	IECManufacturerSignature        Signature = 0x49454320 // 'IEC '

	AdobeRGBModelSignature  Signature = 0x52474220 // 'RGB '
	SRGBModelSignature      Signature = 0x73524742 // 'sRGB'
	PhotoProModelSignature  Signature = 0x50525452 // 'PTPR'
	DisplayP3ModelSignature Signature = 0x70332020 // 'p3  '
)

func maskNull(b byte) byte {
	switch b {
	case 0:
		return ' '
	default:
		return b
	}
}

func (s Signature) String() string {
	v := []byte{
		(maskNull(byte((s >> 24) & 0xff))),
		(maskNull(byte((s >> 16) & 0xff))),
		(maskNull(byte((s >> 8) & 0xff))),
		(maskNull(byte(s & 0xff))),
	}
	return "'" + string(v) + "'"
}
