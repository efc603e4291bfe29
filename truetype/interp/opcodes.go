package interp

// Opcode values from the TrueType instruction set.
const (
	opSVTCA0 = 0x00
	opSVTCA1 = 0x01
	opSPVTCA0 = 0x02
	opSPVTCA1 = 0x03
	opSFVTCA0 = 0x04
	opSFVTCA1 = 0x05
	opSPVTL0 = 0x06
	opSPVTL1 = 0x07
	opSFVTL0 = 0x08
	opSFVTL1 = 0x09
	opSPVFS  = 0x0A
	opSFVFS  = 0x0B
	opGPV    = 0x0C
	opGFV    = 0x0D
	opSFVTPV = 0x0E
	opISECT  = 0x0F

	opSRP0 = 0x10
	opSRP1 = 0x11
	opSRP2 = 0x12
	opSZP0 = 0x13
	opSZP1 = 0x14
	opSZP2 = 0x15
	opSZPS = 0x16
	opSLOOP = 0x17
	opRTG  = 0x18
	opRTHG = 0x19
	opSMD  = 0x1A
	opELSE = 0x1B
	opJMPR = 0x1C
	opSCVTCI = 0x1D
	opSSWCI  = 0x1E
	opSSW    = 0x1F

	opDUP  = 0x20
	opPOP  = 0x21
	opCLEAR = 0x22
	opSWAP = 0x23
	opDEPTH = 0x24
	opCINDEX = 0x25
	opMINDEX = 0x26
	opALIGNPTS = 0x27
	opUTP    = 0x29
	opLOOPCALL = 0x2A
	opCALL   = 0x2B
	opFDEF   = 0x2C
	opENDF   = 0x2D
	opMDAP0  = 0x2E
	opMDAP1  = 0x2F

	opIUP0 = 0x30
	opIUP1 = 0x31
	opSHP0 = 0x32
	opSHP1 = 0x33
	opSHC0 = 0x34
	opSHC1 = 0x35
	opSHZ0 = 0x36
	opSHZ1 = 0x37
	opSHPIX = 0x38
	opIP    = 0x39
	opMSIRP0 = 0x3A
	opMSIRP1 = 0x3B
	opALIGNRP = 0x3C
	opRTDG = 0x3D
	opMIAP0 = 0x3E
	opMIAP1 = 0x3F

	opNPUSHB = 0x40
	opNPUSHW = 0x41
	opWS     = 0x42
	opRS     = 0x43
	opWCVTP  = 0x44
	opRCVT   = 0x45
	opGC0    = 0x46
	opGC1    = 0x47
	opSCFS   = 0x48
	opMD0    = 0x49
	opMD1    = 0x4A
	opMPPEM  = 0x4B
	opMPS    = 0x4C
	opFLIPON = 0x4D
	opFLIPOFF = 0x4E
	opDEBUG  = 0x4F

	opLT  = 0x50
	opLTEQ = 0x51
	opGT  = 0x52
	opGTEQ = 0x53
	opEQ  = 0x54
	opNEQ = 0x55
	opODD = 0x56
	opEVEN = 0x57
	opIF  = 0x58
	opEIF = 0x59
	opAND = 0x5A
	opOR  = 0x5B
	opNOT = 0x5C
	opDELTAP1 = 0x5D
	opSDB = 0x5E
	opSDS = 0x5F

	opADD = 0x60
	opSUB = 0x61
	opDIV = 0x62
	opMUL = 0x63
	opABS = 0x64
	opNEG = 0x65
	opFLOOR = 0x66
	opCEILING = 0x67
	opROUND00 = 0x68
	opROUND01 = 0x69
	opROUND10 = 0x6A
	opROUND11 = 0x6B
	opNROUND00 = 0x6C
	opNROUND01 = 0x6D
	opNROUND10 = 0x6E
	opNROUND11 = 0x6F

	opWCVTF = 0x70
	opDELTAP2 = 0x71
	opDELTAP3 = 0x72
	opDELTAC1 = 0x73
	opDELTAC2 = 0x74
	opDELTAC3 = 0x75
	opSROUND = 0x76
	opS45ROUND = 0x77
	opJROT = 0x78
	opJROF = 0x79
	opROFF = 0x7A
	opRUTG = 0x7C
	opRDTG = 0x7D
	opSANGW = 0x7E
	opAA   = 0x7F

	opFLIPPT = 0x80
	opFLIPRGON = 0x81
	opFLIPRGOFF = 0x82
	opSCANCTRL = 0x85
	opSDPVTL0 = 0x86
	opSDPVTL1 = 0x87
	opGETINFO = 0x88
	opIDEF = 0x89
	opROLL = 0x8A
	opMAX = 0x8B
	opMIN = 0x8C
	opSCANTYPE = 0x8D
	opINSTCTRL = 0x8E

	opPUSHB0 = 0xB0 // PUSHB[0..7] = 0xB0..0xB7
	opPUSHW0 = 0xB8 // PUSHW[0..7] = 0xB8..0xBF

	opMDRP0 = 0xC0 // MDRP[abcde] = 0xC0..0xDF
	opMIRP0 = 0xE0 // MIRP[abcde] = 0xE0..0xFF
)
