package extractor

// BuildInvoicePrompt returns the extraction prompt for supplier invoice
// documents. The schema is an array because one scanned file regularly
// carries several invoices.
func BuildInvoicePrompt() string {
	return `You are a document data extraction assistant. Analyze the provided supplier invoice document and extract ALL data into the following JSON structure.

IMPORTANT INSTRUCTIONS:
- The file may contain MORE THAN ONE invoice (several invoices scanned into one PDF). Return one entry in the "invoices" array per distinct invoice.
- Each invoice may span multiple pages. Extract ALL line items from every page into that invoice's "line_items" array.
- It is critical that you extract EVERY line item. Do not skip, summarize, or omit any items.
- Normalize all dates to DD-MM-YYYY format. Strip timestamps and other non-date text.
- Amounts must be plain numbers without currency symbols or thousands separators.

Return ONLY valid JSON with no markdown formatting, no code fences, and no explanation: just the raw JSON object.

The response must follow this schema:
{
  "invoices": [
    {
      "supplier_name": "",
      "invoice_number": "",
      "invoice_date": "",
      "due_date": "",
      "currency": "",
      "subtotal": 0,
      "tax_amount": 0,
      "total": 0,
      "confidence": 0.0,
      "line_items": [
        {
          "description": "",
          "product_code": "",
          "quantity": 0,
          "unit_price": 0,
          "amount": 0
        }
      ]
    }
  ]
}

"confidence" is your overall confidence for that invoice as a float between 0.0 and 1.0.

If a field is not present in the document, use empty string for text and 0 for numbers.`
}
