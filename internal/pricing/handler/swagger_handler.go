package handler

// Calculate godoc
// @Summary Calculate a price
// @Description Price one medical service with oracle advice and rule fallback
// @Tags Pricing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{service_name=string,description=string,icd11_code=string,quantity=int,base_price=number,currency=string,region=string} true "Pricing input"
// @Success 200 {object} object{success=bool,data=object}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/pricing/calculate [post]
func (h *PricingHandler) CalculateDoc() {}

// CalculateBulk godoc
// @Summary Calculate prices in bulk
// @Description Price a batch of services; batches of five or more get the batch discount
// @Tags Pricing
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{items=array} true "Pricing inputs"
// @Success 200 {object} object{success=bool,data=object{items=array,total=number}}
// @Failure 400 {object} object{success=bool,error=string}
// @Router /api/pricing/bulk [post]
func (h *PricingHandler) CalculateBulkDoc() {}

// History godoc
// @Summary Pricing calculation history
// @Description List persisted pricing calculations (Admin only)
// @Tags Pricing
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Param service query string false "Filter by service name"
// @Success 200 {object} object{success=bool,data=array}
// @Failure 403 {object} object{success=bool,error=string}
// @Router /api/pricing/history [get]
func (h *PricingHandler) HistoryDoc() {}

// SearchCodes godoc
// @Summary Search ICD-11 codes
// @Description Search the WHO ICD-11 terminology for matching codes
// @Tags Pricing
// @Security BearerAuth
// @Produce json
// @Param q query string true "Search query"
// @Param limit query int false "Limit"
// @Success 200 {object} object{success=bool,data=object{codes=array,total=int}}
// @Failure 502 {object} object{success=bool,error=string}
// @Router /api/pricing/codes [get]
func (h *PricingHandler) SearchCodesDoc() {}
