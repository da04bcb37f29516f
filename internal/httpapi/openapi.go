package httpapi

// openapiYAML is served verbatim by GET /v1/openapi.yaml (§6.1). The
// transport layer is named as external in the core's scope, but the
// literal route is part of the contract this package implements.
const openapiYAML = `openapi: 3.0.3
info:
  title: Hardware Information API
  version: "1.0"
paths:
  /v1/certification/status:
    post:
      summary: Classify a hardware description against the certification corpus
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/CertificationStatusRequest'
      responses:
        '200':
          description: Classification result
        '422':
          description: Malformed request body
        '500':
          description: Internal error
components:
  schemas:
    CertificationStatusRequest:
      type: object
      required: [vendor, model, architecture, board, os, processor]
      properties:
        vendor: {type: string}
        model: {type: string}
        architecture: {type: string}
        board:
          type: object
          properties:
            manufacturer: {type: string}
            product_name: {type: string}
            version: {type: string}
        bios:
          type: object
          nullable: true
          properties:
            vendor: {type: string}
            version: {type: string}
            revision: {type: string}
            firmware_revision: {type: string}
            release_date: {type: string}
        os:
          type: object
          properties:
            distributor: {type: string}
            version: {type: string}
            codename: {type: string}
            kernel:
              type: object
              properties:
                name: {type: string}
                version: {type: string}
                signature: {type: string}
        processor:
          type: object
          properties:
            identifier:
              type: array
              items: {type: integer}
            frequency: {type: integer}
            manufacturer: {type: string}
            version: {type: string}
`
