package operations

// PurposeSign represents an incremental signing operation
const PurposeSign = "sign"

// PurposeVerify represents an incremental signature verification operation
const PurposeVerify = "verify"

// PurposeEncrypt represents an incremental encryption operation
const PurposeEncrypt = "encrypt"

// PurposeDecrypt represents an incremental decryption operation
const PurposeDecrypt = "decrypt"

// RemovalReasonExplicit labels removals requested through RemoveOperation
const RemovalReasonExplicit = "explicit"

// RemovalReasonDisconnect labels removals performed by client reclamation
const RemovalReasonDisconnect = "disconnect"
