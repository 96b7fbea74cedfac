package request

type GenerateAddressReq struct {
	OwnerRef int64  `json:"owner_ref" binding:"required"`
	Label    string `json:"label"`
}
